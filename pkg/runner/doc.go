// Package runner orchestrates conversion runs: it loads a rule file,
// discovers the input documents, applies every ruleset to each through
// a shared engine and writes the converted output. Watch mode keeps the
// process up and re-runs the conversion when the rule file or inputs
// change.
//
// One Run call is one invocation: a single engine and sequence registry
// are shared across every discovered file so sequence counters span the
// run, and files are visited in lexicographic path order so allocation
// is reproducible. Optional collaborators attach via options: a trace
// store for persistent run history, a metrics collector for Prometheus
// counters, an extra trace sink for debug logging and a per-file hook
// for progress reporting.
package runner
