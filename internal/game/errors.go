package game

import "fmt"

// RuleCode identifies the class of a rejected action. All rule violations
// are recoverable; the engine never panics on bad input.
type RuleCode int

const (
	CodeOutOfTurn RuleCode = iota + 1
	CodeIllegalCheck
	CodeIllegalCall
	CodeRaiseBelowMinimum
	CodeInsufficientChips
	CodeHandNotStarted
)

func (c RuleCode) String() string {
	switch c {
	case CodeOutOfTurn:
		return "out_of_turn"
	case CodeIllegalCheck:
		return "illegal_check"
	case CodeIllegalCall:
		return "illegal_call"
	case CodeRaiseBelowMinimum:
		return "raise_below_minimum"
	case CodeInsufficientChips:
		return "insufficient_chips"
	case CodeHandNotStarted:
		return "hand_not_started"
	default:
		return "unknown"
	}
}

// RuleError is returned by Apply when an action is rejected. The round
// state is guaranteed to be unmodified when a RuleError is returned.
type RuleError struct {
	Code   RuleCode
	Detail string
}

func (e *RuleError) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is matches any RuleError carrying the same code, so callers can use
// errors.Is against the sentinel values below.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

var (
	ErrOutOfTurn         = &RuleError{Code: CodeOutOfTurn, Detail: "not this player's turn"}
	ErrIllegalCheck      = &RuleError{Code: CodeIllegalCheck, Detail: "a bet must be called"}
	ErrIllegalCall       = &RuleError{Code: CodeIllegalCall, Detail: "nothing to call"}
	ErrRaiseBelowMinimum = &RuleError{Code: CodeRaiseBelowMinimum, Detail: "raise below minimum increment"}
	ErrInsufficientChips = &RuleError{Code: CodeInsufficientChips, Detail: "not enough chips"}
	ErrHandNotStarted    = &RuleError{Code: CodeHandNotStarted, Detail: "no hand in progress"}
)

func ruleError(code RuleCode, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Detail: fmt.Sprintf(format, args...)}
}
