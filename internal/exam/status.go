package exam

// Status is the authoritative lifecycle state of an exam. The time-window
// predicate on submissions is an additional guard on live, never a
// replacement for it.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusScheduled  Status = "scheduled"
	StatusLive       Status = "live"
	StatusEvaluation Status = "evaluation"
	StatusEnded      Status = "ended"
	StatusReval      Status = "reval"
)

// transitions is the full adjacency list. draft and scheduled are reachable
// from each other via publish/unpublish; ended and reval form the
// re-evaluation side branch.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusScheduled},
	StatusScheduled:  {StatusDraft, StatusLive},
	StatusLive:       {StatusEvaluation},
	StatusEvaluation: {StatusEnded},
	StatusEnded:      {StatusReval},
	StatusReval:      {StatusEnded},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}
