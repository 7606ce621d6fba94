package metrics

import (
	"mercator-hq/ganymede/pkg/trace"
)

// eventSink translates engine trace events into metric updates. Only
// the kinds that map onto a counter are consumed; document lifecycle
// events are ignored because the runner records documents itself,
// including ones that fail before the engine sees them.
type eventSink struct {
	c *Collector
}

func (s eventSink) Emit(ev trace.Event) {
	switch ev.Kind {
	case trace.KindEntryMatched:
		s.c.conversion.RecordEntry()

	case trace.KindRuleDecision:
		if ev.Decision == trace.DecisionExecuted {
			s.c.conversion.RecordRuleExecuted()
		} else {
			s.c.conversion.RecordRuleSkipped(ev.Decision)
		}

	case trace.KindActionOutcome:
		if ev.Outcome != trace.OutcomeApplied {
			return
		}
		s.c.conversion.RecordAction(ev.Action)
		if ev.Action == "sequence" {
			s.c.conversion.RecordSequenceAllocation()
		}

	case trace.KindDiagnostic:
		s.c.conversion.RecordDiagnostic(stageFor(ev.Action))
	}
}

// stageFor maps a diagnostic's action discriminator onto the bounded
// stage label set. Diagnostics with no action come from document
// structure checks.
func stageFor(action string) string {
	switch action {
	case "":
		return "structure"
	case "context", "condition", "sequence":
		return action
	default:
		return "action"
	}
}
