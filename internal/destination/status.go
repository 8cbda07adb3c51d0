package destination

// Status is the dispatch lifecycle state of a destination. The enumeration
// is closed; every component consumes these constants rather than comparing
// raw strings.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusQueued    Status = "queued"
	StatusSent      Status = "sent"
	StatusViewed    Status = "viewed"
	StatusQuoted    Status = "quoted"
	StatusDeclined  Status = "declined"
	StatusSubmitted Status = "submitted"
	StatusError     Status = "error"
)

// DispatchMode is the channel used to reach a provider.
type DispatchMode string

const (
	ModeEmail   DispatchMode = "email"
	ModeWebForm DispatchMode = "web_form"
	ModeAPI     DispatchMode = "api"
	ModeUnknown DispatchMode = "unknown"
)

// AllStatuses lists every status in lifecycle order, used for zero-filled
// count maps and validation.
var AllStatuses = []Status{
	StatusDraft,
	StatusQueued,
	StatusSent,
	StatusViewed,
	StatusQuoted,
	StatusDeclined,
	StatusSubmitted,
	StatusError,
}

// ValidTransitions maps each status to its valid next statuses.
// The special case "any non-terminal → error" is handled in IsValidTransition.
var ValidTransitions = map[Status][]Status{
	StatusDraft:  {StatusQueued},
	StatusQueued: {StatusSent, StatusError},
	StatusSent:   {StatusViewed, StatusQuoted, StatusDeclined, StatusSubmitted, StatusError},
	StatusViewed: {StatusQuoted, StatusDeclined, StatusSubmitted, StatusError},
}

// Known reports whether s is part of the closed enumeration.
func (s Status) Known() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the dispatch lifecycle. Further handling
// of accepted or declined destinations (award, re-quote) happens elsewhere.
func (s Status) Terminal() bool {
	return s == StatusQuoted || s == StatusDeclined || s == StatusSubmitted
}

// KnownMode reports whether m is a recognized dispatch mode.
func KnownMode(m DispatchMode) bool {
	switch m {
	case ModeEmail, ModeWebForm, ModeAPI, ModeUnknown:
		return true
	}
	return false
}

// IsValidTransition checks whether a status transition is allowed. Error is
// reachable from any known non-terminal status, so dispatch failures
// discovered late can still be recorded.
func IsValidTransition(from, to Status) bool {
	if to == StatusError {
		return from.Known() && !from.Terminal()
	}
	valid, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == to {
			return true
		}
	}
	return false
}
