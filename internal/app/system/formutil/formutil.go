// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form should be re-rendered with:
// - The user's previously entered values (echoed back)
// - A message per invalid field and a summary error
// - A valid/invalid marker for every field that was checked
//
// Example usage:
//
//	type registerData struct {
//		formutil.Base
//		Email string
//	}
//
//	data := registerData{Email: email}
//	formutil.SetBase(&data.Base, r, "Create account", "/")
//	data.SetResult(inputval.Validate(input))
//	templates.Render(w, r, "register", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/projectdash/internal/app/system/inputval"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
)

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	viewdata.BaseVM
	Error template.HTML

	// Submitted is set once the form has been posted; before that no field
	// is marked valid or invalid.
	Submitted   bool
	FieldErrors map[string]string
}

// SetBase populates the page fields from the request context.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
}

// SetError sets the summary error message.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// SetResult records per-field messages from a validation result and marks
// the form as submitted. The first message becomes the summary error.
func (b *Base) SetResult(res *inputval.Result) {
	b.Submitted = true
	b.FieldErrors = res.ByField()
	if res.HasErrors() {
		b.SetError(res.First())
	}
}

// SetFieldError marks one field invalid, for checks done after Validate
// (for example a duplicate email).
func (b *Base) SetFieldError(field, msg string) {
	b.Submitted = true
	if b.FieldErrors == nil {
		b.FieldErrors = make(map[string]string)
	}
	b.FieldErrors[field] = msg
	if b.Error == "" {
		b.SetError(msg)
	}
}

// FieldError returns the message for field, or "".
func (b Base) FieldError(field string) string {
	return b.FieldErrors[field]
}

// FieldClass returns the CSS state class for a field: "" before submit,
// then "is-invalid" or "is-valid".
func (b Base) FieldClass(field string) string {
	if !b.Submitted {
		return ""
	}
	if _, bad := b.FieldErrors[field]; bad {
		return "is-invalid"
	}
	return "is-valid"
}
