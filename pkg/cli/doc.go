/*
Package cli provides command-line utilities shared by the ganymede
subcommands.

Output Formatting:

Commands that support --format render their results through a
Formatter. Result types implement fmt.Stringer for the text rendering
and carry json tags for the JSON one:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Progress Reporting:

Batch conversions report per-file progress:

	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(len(files)))
	for i, f := range files {
		// Convert f
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

Watch mode runs until SIGINT or SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Run the watcher with ctx
*/
package cli
