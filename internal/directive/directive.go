// Package directive models the driver's input language: an ordered list
// of (class-name, key-value) pairs, each consumed greedily by the class
// it names. Any key left over after construction is a configuration
// error, matching FEASST's argtype contract (original_source/plugin
// /utils/include/arguments.h) where every constructor pops the keys it
// recognizes and the remainder must be empty.
package directive

import "fmt"

// Args is a key-value bag consumed by Pop as a directive's fields are
// read off. It is not safe for concurrent use.
type Args struct {
	Class  string
	values map[string]string
	popped map[string]bool
}

// New wraps a key-value map for one directive.
func New(class string, values map[string]string) *Args {
	return &Args{Class: class, values: values, popped: make(map[string]bool, len(values))}
}

// Pop returns the value for key and marks it consumed. ok is false if
// the key was never present.
func (a *Args) Pop(key string) (string, bool) {
	v, ok := a.values[key]
	if ok {
		a.popped[key] = true
	}
	return v, ok
}

// PopDefault returns the value for key, or def if absent.
func (a *Args) PopDefault(key, def string) string {
	if v, ok := a.Pop(key); ok {
		return v
	}
	return def
}

// Remaining returns keys present in the bag that were never popped.
func (a *Args) Remaining() []string {
	var rem []string
	for k := range a.values {
		if !a.popped[k] {
			rem = append(rem, k)
		}
	}
	return rem
}

// Done returns a "ConfigurationError" if any key was left unconsumed.
func (a *Args) Done() error {
	if rem := a.Remaining(); len(rem) > 0 {
		return &ConfigurationError{Class: a.Class, UnusedKeys: rem}
	}
	return nil
}

// ConfigurationError is a directive that referenced an unrecognized key,
// or was issued out of the required order (Configuration before
// Potential before ThermoParams before Criterion before Trial before Run).
type ConfigurationError struct {
	Class      string
	UnusedKeys []string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Class, e.Reason)
	}
	return fmt.Sprintf("%s: unused arguments: %v", e.Class, e.UnusedKeys)
}

// Directive is one entry of the driver's input list.
type Directive struct {
	Class  string
	Values map[string]string
}

// List is the full ordered program.
type List []Directive
