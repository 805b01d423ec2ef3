// Package inputval validates form input structs using `validate` and
// `label` struct tags.
//
// Supported rules: required, min=N, max=N (rune counts), email, password,
// eqfield=Other, httpurl, objectid, date (YYYY-MM-DD), amount (positive,
// at most two decimal places).
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string // struct field name
	Message string // user-facing text
}

// Result collects field errors in struct field order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// ByField returns the first message for each field that failed.
func (r *Result) ByField() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Validate checks every string field of the struct v (or pointer to struct).
// Only the first failing rule of each field is reported.
func Validate(v any) *Result {
	res := &Result{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return res
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || f.Type.Kind() != reflect.String {
			continue
		}
		label := f.Tag.Get("label")
		if label == "" {
			label = f.Name
		}
		value := rv.Field(i).String()

		for _, rule := range strings.Split(tag, ",") {
			name, arg, _ := strings.Cut(strings.TrimSpace(rule), "=")
			if msg := check(rv, rt, name, arg, label, value); msg != "" {
				res.Errors = append(res.Errors, FieldError{Field: f.Name, Message: msg})
				break
			}
		}
	}
	return res
}

func check(rv reflect.Value, rt reflect.Type, rule, arg, label, value string) string {
	trimmed := strings.TrimSpace(value)
	if rule != "required" && trimmed == "" {
		return ""
	}
	switch rule {
	case "required":
		if trimmed == "" {
			return label + " is required."
		}
	case "max":
		if n, err := strconv.Atoi(arg); err == nil && utf8.RuneCountInString(trimmed) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case "min":
		if n, err := strconv.Atoi(arg); err == nil && utf8.RuneCountInString(trimmed) < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, n)
		}
	case "email":
		if !IsValidEmail(value) {
			return "A valid email address is required."
		}
	case "password":
		return CheckPassword(value)
	case "eqfield":
		other := rv.FieldByName(arg)
		if other.IsValid() && other.Kind() == reflect.String && other.String() != value {
			otherLabel := arg
			if sf, ok := rt.FieldByName(arg); ok && sf.Tag.Get("label") != "" {
				otherLabel = sf.Tag.Get("label")
			}
			return fmt.Sprintf("%s must match %s.", label, otherLabel)
		}
	case "httpurl":
		if !IsValidHTTPURL(value) {
			return label + " must be a valid http(s) URL."
		}
	case "objectid":
		if !IsValidObjectID(value) {
			return label + " is not a valid id."
		}
	case "date":
		if !IsValidDate(value) {
			return label + " must be a date (YYYY-MM-DD)."
		}
	case "amount":
		if !IsValidAmount(value) {
			return label + " must be a positive amount with at most two decimals."
		}
	}
	return ""
}
