package game

import "fmt"

// ActionType enumerates the legal betting actions.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Raise
	AllIn
)

func (a ActionType) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case AllIn:
		return "allin"
	default:
		return "unknown"
	}
}

// Action is a closed action variant. Amount is meaningful only for Raise,
// where it is the player's new total contribution for the current stage,
// not the delta on top of their existing bet.
type Action struct {
	Type   ActionType
	Amount int
}

// ParseActionType maps a wire action name to its ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise":
		return Raise, nil
	case "allin":
		return AllIn, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}
