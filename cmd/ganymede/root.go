package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - rule-driven YAML schema migration",
	Long: `Ganymede is a schema migration tool for keyed YAML data. It applies
declarative GML rule files to id-keyed documents such as game item
definitions, producing converted documents without hand-written scripts.

It provides:
  - Declarative per-entry transformations (set, rename, delete, append)
  - Conditional rules with an embedded expression language
  - Deterministic sequence allocation across batch conversions
  - Persistent trace records for auditing every rule decision
  - Watch mode that reconverts whenever rules or inputs change

For more information, visit: https://github.com/mercator-hq/ganymede`,
	Version: Version,

	// Errors are reported once, in Execute.
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags, inherited by every subcommand.
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
}
