// Package validate collects field-level validation failures into a single
// ValidationError. Checkers are chainable and stop at the first failure of a
// given field; Object checkers aggregate every field's failure.
package validate

import (
	"errors"
	"fmt"
	"reflect"
)

type Validator interface{ Validate() error }

type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

/////////////////////////////////////////////////////////////////////
/////// ANY CHECKER
/////////////////////////////////////////////////////////////////////

type AnyChecker struct {
	label string
	value reflect.Value

	done   bool
	errors []error
}

func Any(label string, anything any) *AnyChecker {
	return &AnyChecker{label: label, value: reflect.ValueOf(anything)}
}

func (c *AnyChecker) Required() *AnyChecker { return c.init(true) }
func (c *AnyChecker) Optional() *AnyChecker { return c.init(false) }

func (c *AnyChecker) Error() error {
	if len(c.errors) > 0 {
		return &ValidationError{Err: errors.Join(c.errors...)}
	}
	return nil
}

func (c *AnyChecker) fail(format string, args ...any) *AnyChecker {
	c.done = true
	c.errors = append(c.errors, fmt.Errorf(format, args...))
	return c
}

func (c *AnyChecker) init(required bool) *AnyChecker {
	if c.done {
		return c
	}
	if isEffectivelyZero(c.value) {
		if required {
			return c.fail("%s is required", c.label)
		}
		c.done = true
		return c
	}
	if errs := validateNested(c.label, c.value); len(errs) > 0 {
		c.errors = append(c.errors, errs...)
		c.done = true
	}
	return c
}

/////////////////////////////////////////////////////////////////////
/////// OBJECT CHECKER
/////////////////////////////////////////////////////////////////////

type ObjectChecker struct {
	label    string
	base     reflect.Value
	isMap    bool
	errors   []error
	children []*AnyChecker
}

// Object accepts a struct, a map with string keys, or a pointer to either.
func Object(object any) *ObjectChecker {
	oc := &ObjectChecker{}
	if object == nil {
		oc.errors = append(oc.errors, errors.New("object cannot be nil"))
		return oc
	}
	v := reflect.ValueOf(object)
	base := v
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	switch {
	case base.Kind() == reflect.Struct:
	case base.Kind() == reflect.Map && base.Type().Key().Kind() == reflect.String:
		oc.isMap = true
	default:
		oc.errors = append(oc.errors, fmt.Errorf("object must be a struct or a map with string keys (got %T)", object))
		return oc
	}
	oc.label = base.Type().String()
	oc.base = base
	return oc
}

func (oc *ObjectChecker) Required(field string) *AnyChecker { return oc.field(field, true) }
func (oc *ObjectChecker) Optional(field string) *AnyChecker { return oc.field(field, false) }

func (oc *ObjectChecker) Error() error {
	errs := append([]error(nil), oc.errors...)
	for _, child := range oc.children {
		if err := child.Error(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Err: errors.Join(errs...)}
	}
	return nil
}

func (oc *ObjectChecker) field(name string, required bool) *AnyChecker {
	c := &AnyChecker{label: name}
	if !oc.base.IsValid() {
		c.done = true
		return c
	}
	if oc.isMap {
		c.value = oc.base.MapIndex(reflect.ValueOf(name))
		if c.value.IsValid() && c.value.Kind() == reflect.Interface {
			c.value = c.value.Elem()
		}
	} else {
		f := oc.base.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			c.value = f
		}
	}
	oc.children = append(oc.children, c)
	return c.init(required)
}

/////////////////////////////////////////////////////////////////////
/////// UTILS
/////////////////////////////////////////////////////////////////////

var validatorType = reflect.TypeOf((*Validator)(nil)).Elem()

// validateNested calls Validate on v (or &v) if implemented, and otherwise
// descends into struct fields, slice elements and map values.
func validateNested(label string, v reflect.Value) []error {
	if !v.IsValid() || isNilish(v) {
		return nil
	}

	var errs []error
	appendErr := func(err error) {
		if err == nil {
			return
		}
		if IsValidationError(err) {
			errs = append(errs, err)
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}

	// A Validator is responsible for its own fields.
	switch {
	case v.Type().Implements(validatorType) && v.CanInterface():
		appendErr(v.Interface().(Validator).Validate())
		return errs
	case v.Kind() != reflect.Ptr && reflect.PointerTo(v.Type()).Implements(validatorType):
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		appendErr(ptr.Interface().(Validator).Validate())
		return errs
	}

	base := v
	for base.Kind() == reflect.Ptr || base.Kind() == reflect.Interface {
		if base.IsNil() {
			return errs
		}
		base = base.Elem()
	}

	switch base.Kind() {
	case reflect.Struct:
		for i := range base.NumField() {
			if !base.Type().Field(i).IsExported() {
				continue
			}
			fieldLabel := fmt.Sprintf("%s.%s", label, base.Type().Field(i).Name)
			errs = append(errs, validateNested(fieldLabel, base.Field(i))...)
		}
	case reflect.Slice, reflect.Array:
		for i := range base.Len() {
			errs = append(errs, validateNested(fmt.Sprintf("%s[%d]", label, i), base.Index(i))...)
		}
	case reflect.Map:
		iter := base.MapRange()
		for iter.Next() {
			errs = append(errs, validateNested(fmt.Sprintf("%s[%v]", label, iter.Key()), iter.Value())...)
		}
	}

	return errs
}

func isNilish(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func isEffectivelyZero(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return false
	case reflect.Map, reflect.Slice:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}
