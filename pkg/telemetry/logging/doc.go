// Package logging builds the process-wide structured logger.
//
// # Overview
//
// New turns a small Config into a ready log/slog logger: text or JSON
// encoding, a minimum level from "debug" through "error", and optional
// file:line annotations on every record.
//
// Logs default to stderr so that stdout stays reserved for converted
// document output.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "text",
//	})
//	if err != nil {
//	    return err
//	}
//
//	logger.Info("document converted",
//	    "document", "items.yml",
//	    "entries", 42,
//	)
//
// Components take a *slog.Logger directly; there is no package-level
// singleton.
package logging
