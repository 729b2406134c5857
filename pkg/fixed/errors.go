package fixed

import "fmt"

type ErrorKind uint8

const (
	NegativeValue ErrorKind = iota + 1
	Overflow
	DivideByZero
	Conversion
)

func (k ErrorKind) String() string {
	switch k {
	case NegativeValue:
		return "negative value not allowed"
	case Overflow:
		return "overflow"
	case DivideByZero:
		return "division by zero"
	case Conversion:
		return "failed to produce fixed point number"
	default:
		return "unknown arithmetic error"
	}
}

// Error is returned by every fallible Fixed operation.
type Error struct {
	Kind   ErrorKind
	Detail string
}

var (
	ErrNegativeValue = &Error{Kind: NegativeValue}
	ErrOverflow      = &Error{Kind: Overflow}
	ErrDivideByZero  = &Error{Kind: DivideByZero}
	ErrConversion    = &Error{Kind: Conversion}
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "fixed: " + e.Kind.String()
	}
	return fmt.Sprintf("fixed: %s: %s", e.Kind, e.Detail)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrOverflow) works
// regardless of the detail message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
