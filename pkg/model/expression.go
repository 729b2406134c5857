package model

import (
	"fmt"
	"sort"
)

type ExpressionKind uint8

const (
	ExprRaw ExpressionKind = iota + 1
	ExprContextValue
	ExprAdd
	ExprSubtract
	ExprMultiply
	ExprDivide
	ExprMod
	ExprRaiseTo
	ExprGreater
	ExprLess
	ExprEqual
	ExprNot
	ExprAnd
	ExprOr
	ExprIf
	ExprContains
	ExprContainsAll
	ExprContainsAny
	ExprWhere
	ExprQuery
)

var expressionKindNames = map[ExpressionKind]string{
	ExprRaw:          "Raw",
	ExprContextValue: "ContextValue",
	ExprAdd:          "Add",
	ExprSubtract:     "Subtract",
	ExprMultiply:     "Multiply",
	ExprDivide:       "Divide",
	ExprMod:          "Mod",
	ExprRaiseTo:      "RaiseTo",
	ExprGreater:      "Greater",
	ExprLess:         "Less",
	ExprEqual:        "Equal",
	ExprNot:          "Not",
	ExprAnd:          "And",
	ExprOr:           "Or",
	ExprIf:           "If",
	ExprContains:     "Contains",
	ExprContainsAll:  "ContainsAll",
	ExprContainsAny:  "ContainsAny",
	ExprWhere:        "Where",
	ExprQuery:        "Query",
}

func (k ExpressionKind) String() string {
	if s, ok := expressionKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ExpressionKind(%d)", uint8(k))
}

// Expression is a side-effect free computation embedded in instructions.
type Expression interface {
	Kind() ExpressionKind
	Len() int
	expression()
}

// EvaluatesTo holds the expression an instruction operand is computed from.
type EvaluatesTo struct {
	Expression Expression
}

// Val wraps a constant value.
func Val(v Value) EvaluatesTo {
	return EvaluatesTo{Expression: Raw{Value: v}}
}

// Expr wraps an arbitrary expression.
func Expr(e Expression) EvaluatesTo {
	return EvaluatesTo{Expression: e}
}

func (e EvaluatesTo) Len() int {
	if e.Expression == nil {
		return 0
	}
	return e.Expression.Len()
}

type (
	Raw struct {
		Value Value
	}
	ContextValue struct {
		_    struct{} `cbor:",toarray"`
		Name Name
	}
	Add struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Subtract struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Multiply struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Divide struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Mod struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	RaiseTo struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Greater struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Less struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Equal struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Not struct {
		_          struct{} `cbor:",toarray"`
		Expression EvaluatesTo
	}
	And struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	Or struct {
		_           struct{} `cbor:",toarray"`
		Left, Right EvaluatesTo
	}
	If struct {
		_         struct{} `cbor:",toarray"`
		Condition EvaluatesTo
		Then      EvaluatesTo
		Otherwise EvaluatesTo
	}
	Contains struct {
		_          struct{} `cbor:",toarray"`
		Collection EvaluatesTo
		Element    EvaluatesTo
	}
	ContainsAll struct {
		_          struct{} `cbor:",toarray"`
		Collection EvaluatesTo
		Elements   EvaluatesTo
	}
	ContainsAny struct {
		_          struct{} `cbor:",toarray"`
		Collection EvaluatesTo
		Elements   EvaluatesTo
	}
	// Where evaluates Expression with extra context bindings.
	Where struct {
		_          struct{} `cbor:",toarray"`
		Expression EvaluatesTo
		Values     map[Name]EvaluatesTo
	}
	// QueryExpression evaluates to the result of a read-only query.
	QueryExpression struct {
		Query Query
	}
)

func (Raw) Kind() ExpressionKind             { return ExprRaw }
func (ContextValue) Kind() ExpressionKind    { return ExprContextValue }
func (Add) Kind() ExpressionKind             { return ExprAdd }
func (Subtract) Kind() ExpressionKind        { return ExprSubtract }
func (Multiply) Kind() ExpressionKind        { return ExprMultiply }
func (Divide) Kind() ExpressionKind          { return ExprDivide }
func (Mod) Kind() ExpressionKind             { return ExprMod }
func (RaiseTo) Kind() ExpressionKind         { return ExprRaiseTo }
func (Greater) Kind() ExpressionKind         { return ExprGreater }
func (Less) Kind() ExpressionKind            { return ExprLess }
func (Equal) Kind() ExpressionKind           { return ExprEqual }
func (Not) Kind() ExpressionKind             { return ExprNot }
func (And) Kind() ExpressionKind             { return ExprAnd }
func (Or) Kind() ExpressionKind              { return ExprOr }
func (If) Kind() ExpressionKind              { return ExprIf }
func (Contains) Kind() ExpressionKind        { return ExprContains }
func (ContainsAll) Kind() ExpressionKind     { return ExprContainsAll }
func (ContainsAny) Kind() ExpressionKind     { return ExprContainsAny }
func (Where) Kind() ExpressionKind           { return ExprWhere }
func (QueryExpression) Kind() ExpressionKind { return ExprQuery }

func (e Raw) Len() int {
	if e.Value == nil {
		return 1
	}
	return e.Value.Len()
}
func (ContextValue) Len() int      { return 1 }
func (e Add) Len() int             { return binaryLen(e.Left, e.Right) }
func (e Subtract) Len() int        { return binaryLen(e.Left, e.Right) }
func (e Multiply) Len() int        { return binaryLen(e.Left, e.Right) }
func (e Divide) Len() int          { return binaryLen(e.Left, e.Right) }
func (e Mod) Len() int             { return binaryLen(e.Left, e.Right) }
func (e RaiseTo) Len() int         { return binaryLen(e.Left, e.Right) }
func (e Greater) Len() int         { return binaryLen(e.Left, e.Right) }
func (e Less) Len() int            { return binaryLen(e.Left, e.Right) }
func (e Equal) Len() int           { return binaryLen(e.Left, e.Right) }
func (e Not) Len() int             { return e.Expression.Len() + 1 }
func (e And) Len() int             { return binaryLen(e.Left, e.Right) }
func (e Or) Len() int              { return binaryLen(e.Left, e.Right) }
func (e If) Len() int              { return e.Condition.Len() + e.Then.Len() + e.Otherwise.Len() + 1 }
func (e Contains) Len() int        { return binaryLen(e.Collection, e.Element) }
func (e ContainsAll) Len() int     { return binaryLen(e.Collection, e.Elements) }
func (e ContainsAny) Len() int     { return binaryLen(e.Collection, e.Elements) }
func (QueryExpression) Len() int   { return 1 }

func (e Where) Len() int {
	n := e.Expression.Len() + 1
	for _, v := range e.Values {
		n += v.Len()
	}
	return n
}

func binaryLen(a, b EvaluatesTo) int {
	return a.Len() + b.Len() + 1
}

func (Raw) expression()             {}
func (ContextValue) expression()    {}
func (Add) expression()             {}
func (Subtract) expression()        {}
func (Multiply) expression()        {}
func (Divide) expression()          {}
func (Mod) expression()             {}
func (RaiseTo) expression()         {}
func (Greater) expression()         {}
func (Less) expression()            {}
func (Equal) expression()           {}
func (Not) expression()             {}
func (And) expression()             {}
func (Or) expression()              {}
func (If) expression()              {}
func (Contains) expression()        {}
func (ContainsAll) expression()     {}
func (ContainsAny) expression()     {}
func (Where) expression()           {}
func (QueryExpression) expression() {}

// SortedBindings returns the names bound by a Where in ascending order.
func (e Where) SortedBindings() []Name {
	names := make([]Name, 0, len(e.Values))
	for k := range e.Values {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func asExpression[T Expression](raw []byte) (Expression, error) {
	return decodeAs[T](raw)
}

var expressionDecoders = map[ExpressionKind]func([]byte) (Expression, error){
	ExprRaw:          asExpression[Raw],
	ExprContextValue: asExpression[ContextValue],
	ExprAdd:          asExpression[Add],
	ExprSubtract:     asExpression[Subtract],
	ExprMultiply:     asExpression[Multiply],
	ExprDivide:       asExpression[Divide],
	ExprMod:          asExpression[Mod],
	ExprRaiseTo:      asExpression[RaiseTo],
	ExprGreater:      asExpression[Greater],
	ExprLess:         asExpression[Less],
	ExprEqual:        asExpression[Equal],
	ExprNot:          asExpression[Not],
	ExprAnd:          asExpression[And],
	ExprOr:           asExpression[Or],
	ExprIf:           asExpression[If],
	ExprContains:     asExpression[Contains],
	ExprContainsAll:  asExpression[ContainsAll],
	ExprContainsAny:  asExpression[ContainsAny],
	ExprWhere:        asExpression[Where],
	ExprQuery:        asExpression[QueryExpression],
}

func (e EvaluatesTo) MarshalCBOR() ([]byte, error) {
	if e.Expression == nil {
		return nil, fmt.Errorf("encode empty expression")
	}
	return marshalEnvelope(uint8(e.Expression.Kind()), e.Expression)
}

func (e *EvaluatesTo) UnmarshalCBOR(data []byte) error {
	kind, payload, err := unmarshalEnvelope(data)
	if err != nil {
		return err
	}
	dec, ok := expressionDecoders[ExpressionKind(kind)]
	if !ok {
		return decodeErr("expression", "unknown kind %d", kind)
	}
	expr, err := dec(payload)
	if err != nil {
		return &DecodeError{What: ExpressionKind(kind).String(), Err: err}
	}
	e.Expression = expr
	return nil
}

func (e Raw) MarshalCBOR() ([]byte, error) {
	return encodeValue(e.Value)
}

func (e *Raw) UnmarshalCBOR(data []byte) error {
	v, err := decodeValue(data)
	if err != nil {
		return err
	}
	e.Value = v
	return nil
}

func (e QueryExpression) MarshalCBOR() ([]byte, error) {
	return encodeQuery(e.Query)
}

func (e *QueryExpression) UnmarshalCBOR(data []byte) error {
	q, err := decodeQuery(data)
	if err != nil {
		return err
	}
	e.Query = q
	return nil
}
