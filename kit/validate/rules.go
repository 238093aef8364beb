package validate

import (
	"reflect"
	"strings"
)

func (c *AnyChecker) If(condition bool, f func(*AnyChecker) *AnyChecker) *AnyChecker {
	if c.done || !condition {
		return c
	}
	return f(c)
}

// In requires the value to equal one of the elements of permittedValues,
// which must be a non-empty slice or array.
func (c *AnyChecker) In(permittedValues any) *AnyChecker {
	if c.done {
		return c
	}
	list := reflect.ValueOf(permittedValues)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return c.fail("%s: permitted values must be a slice or array", c.label)
	}
	if list.Len() == 0 {
		return c.fail("%s: no permitted values", c.label)
	}
	val := c.value.Interface()
	for i := range list.Len() {
		if reflect.DeepEqual(val, list.Index(i).Interface()) {
			return c
		}
	}
	return c.fail("%s is not a permitted value (got %v)", c.label, val)
}

func (c *AnyChecker) StartsWith(prefix string) *AnyChecker {
	if c.done {
		return c
	}
	s, ok := c.stringValue()
	if !ok {
		return c.fail("%s must be a string", c.label)
	}
	if !strings.HasPrefix(s, prefix) {
		return c.fail("%s must start with %q", c.label, prefix)
	}
	return c
}

// Check runs an arbitrary rule against the underlying value.
func (c *AnyChecker) Check(f func(v any) error) *AnyChecker {
	if c.done {
		return c
	}
	if err := f(c.value.Interface()); err != nil {
		return c.fail("%s: %w", c.label, err)
	}
	return c
}

func (c *AnyChecker) stringValue() (string, bool) {
	v := c.value
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() != reflect.String {
		return "", false
	}
	return v.String(), true
}
