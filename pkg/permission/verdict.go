// Package permission decides whether an authority may run an instruction.
// Policies are trees of primitive checks joined by All, Any and Not nodes.
package permission

import (
	"fmt"
)

// Verdict is the outcome of a permission check.
type Verdict struct {
	Allowed bool
	Reason  string
}

func Allow() Verdict {
	return Verdict{Allowed: true}
}

func Deny(format string, args ...interface{}) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

func (v Verdict) String() string {
	if v.Allowed {
		return "allow"
	}
	return "deny: " + v.Reason
}
