package checkout

type Status string

const (
	StatusIdle              Status = "IDLE"
	StatusValidatingAddress Status = "VALIDATING_ADDRESS"
	StatusSubmitting        Status = "SUBMITTING"
	StatusConfirmed         Status = "CONFIRMED"
	StatusFailed            Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusIdle:              {StatusValidatingAddress},
	StatusValidatingAddress: {StatusSubmitting, StatusIdle},
	StatusSubmitting:        {StatusConfirmed, StatusFailed},
	StatusConfirmed:         {StatusIdle},
	StatusFailed:            {StatusIdle},
}

// CanTransitionTo reports whether a checkout attempt may move from one status to another.
func CanTransitionTo(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// InFlight is true while an attempt is being validated or submitted.
func (s Status) InFlight() bool {
	return s == StatusValidatingAddress || s == StatusSubmitting
}

// String returns the wire name, as logged and sent to clients.
func (s Status) String() string {
	return string(s)
}
