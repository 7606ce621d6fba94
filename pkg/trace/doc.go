// Package trace defines the debug trace emitted while rules run: which
// rulesets entered, which entries matched, what each rule decided and
// what every action did. The engine emits Events into a Sink; sinks
// format, store or discard them.
//
// The sqlite-backed Store persists runs for later inspection with the
// trace subcommands; LogSink mirrors events onto the structured logger
// for --debug runs.
package trace
