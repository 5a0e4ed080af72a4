package chatflow

import "fmt"

// ToolRoutingReason is shown when a tool output is wired anywhere other
// than an agent's Allowed Tools input.
const ToolRoutingReason = "Tool outputs can only be connected to an agent's Allowed Tools input."

// RejectionError carries the user-facing reason a connection was refused.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return "chatflow: connection rejected: " + e.Reason }

func (e *RejectionError) Is(target error) bool { return target == ErrConnectionRejected }

// Reject builds a RejectionError.
func Reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// Rule inspects a proposed edge. If the rule does not apply it returns
// matched=false and the next rule is consulted. A matched rule decides:
// nil accepts, a non-nil error rejects.
type Rule func(source, target *Node, e Edge) (matched bool, err error)

// Validator evaluates its rules in order; when none match the edge is accepted.
type Validator struct {
	rules []Rule
}

// NewValidator returns a validator with the built-in rules followed by extra.
func NewValidator(extra ...Rule) *Validator {
	v := &Validator{rules: []Rule{ToolRule}}
	v.rules = append(v.rules, extra...)
	return v
}

// With returns a copy of v with r appended to the table.
func (v *Validator) With(r Rule) *Validator {
	rules := make([]Rule, len(v.rules), len(v.rules)+1)
	copy(rules, v.rules)
	return &Validator{rules: append(rules, r)}
}

// Validate decides whether e may be created between source and target.
func (v *Validator) Validate(source, target *Node, e Edge) error {
	for _, r := range v.rules {
		matched, err := r(source, target, e)
		if matched {
			return err
		}
	}
	return nil
}

// ToolRule only lets tool outputs reach an agent's allowedTools handle.
func ToolRule(source, target *Node, e Edge) (bool, error) {
	if source == nil || !IsTool(source.Type) {
		return false, nil
	}
	if target != nil && IsAgent(target.Type) && e.TargetHandle == HandleAllowedTools {
		return true, nil
	}
	return true, &RejectionError{Reason: ToolRoutingReason}
}
