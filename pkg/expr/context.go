package expr

import (
	"github.com/korthochain/ledger/pkg/model"
)

// Context binds variable names to values. It is immutable: With returns an
// extended copy and leaves the receiver untouched.
type Context struct {
	values map[model.Name]model.Value
}

func NewContext() Context {
	return Context{}
}

func (c Context) With(name model.Name, v model.Value) Context {
	values := make(map[model.Name]model.Value, len(c.values)+1)
	for k, val := range c.values {
		values[k] = val
	}
	values[name] = v
	return Context{values: values}
}

func (c Context) Get(name model.Name) (model.Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c Context) Len() int {
	return len(c.values)
}
