package trace

import "time"

// Kind discriminates trace events.
type Kind string

const (
	KindDocumentStarted Kind = "document_started"
	KindDocumentDone    Kind = "document_done"
	KindRuleSetEntered  Kind = "ruleset_entered"
	KindRuleSetSkipped  Kind = "ruleset_skipped"
	KindEntryMatched    Kind = "entry_matched"
	KindRuleDecision    Kind = "rule_decision"
	KindActionOutcome   Kind = "action_outcome"
	KindDiagnostic      Kind = "diagnostic"
)

// Decision values carried by KindRuleDecision events. Exactly one of
// these is recorded per rule per entry.
const (
	DecisionExecuted        = "executed"
	DecisionDependencyUnmet = "dependency_unmet"
	DecisionConditionFalse  = "condition_false"
	DecisionSkipFlag        = "skip_flag"
)

// Outcome values carried by KindActionOutcome events. A no-op records
// that the action ran but found nothing to change.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "no_op"
)

// Event is one discrete trace record. Fields that do not apply to the
// kind are left empty.
type Event struct {
	Time     time.Time `json:"time"`
	Kind     Kind      `json:"kind"`
	Document string    `json:"document,omitempty"`
	RuleSet  string    `json:"ruleset,omitempty"`
	EntryID  string    `json:"entry_id,omitempty"`
	Rule     string    `json:"rule,omitempty"`
	Decision string    `json:"decision,omitempty"`
	Action   string    `json:"action,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Path     string    `json:"path,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}
