package register

import (
	"net/http"

	"github.com/dalemusser/projectdash/internal/app/system/authutil"
	"github.com/dalemusser/projectdash/internal/app/system/formutil"
	"github.com/dalemusser/waffle/pantry/templates"
)

type fieldDef struct {
	Name         string
	Label        string
	Type         string
	Autocomplete string
	Secret       bool // not echoed after a full submit
}

var fieldDefs = []fieldDef{
	{Name: "CompanyName", Label: "Company name", Type: "text", Autocomplete: "organization"},
	{Name: "FullName", Label: "Full name", Type: "text", Autocomplete: "name"},
	{Name: "Email", Label: "Email", Type: "email", Autocomplete: "email"},
	{Name: "Password", Label: "Password", Type: "password", Autocomplete: "new-password", Secret: true},
	{Name: "ConfirmPassword", Label: "Confirm password", Type: "password", Autocomplete: "new-password", Secret: true},
	{Name: "Country", Label: "Country", Type: "text", Autocomplete: "country-name"},
	{Name: "Industry", Label: "Industry", Type: "text"},
}

func fieldDefByName(name string) (fieldDef, bool) {
	for _, f := range fieldDefs {
		if f.Name == name {
			return f, true
		}
	}
	return fieldDef{}, false
}

// fieldVM is one input with its validation state.
type fieldVM struct {
	fieldDef
	Value string
	Class string
	Error string
}

type registerData struct {
	formutil.Base
	Fields        []fieldVM
	PasswordRules string
}

func (in registerInput) value(name string) string {
	switch name {
	case "CompanyName":
		return in.CompanyName
	case "FullName":
		return in.FullName
	case "Email":
		return in.Email
	case "Country":
		return in.Country
	case "Industry":
		return in.Industry
	}
	return ""
}

// buildField renders one input. keepSecret echoes password values, which
// only the single-field check does since it replaces the input in place.
func buildField(def fieldDef, in registerInput, form formutil.Base, keepSecret bool) fieldVM {
	f := fieldVM{
		fieldDef: def,
		Class:    form.FieldClass(def.Name),
		Error:    form.FieldError(def.Name),
	}
	switch {
	case !def.Secret:
		f.Value = in.value(def.Name)
	case keepSecret && def.Name == "Password":
		f.Value = in.Password
	case keepSecret && def.Name == "ConfirmPassword":
		f.Value = in.ConfirmPassword
	}
	return f
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, in registerInput, form formutil.Base) {
	data := registerData{Base: form, PasswordRules: authutil.PasswordRules()}
	formutil.SetBase(&data.Base, r, "Create account", "/")
	for _, def := range fieldDefs {
		data.Fields = append(data.Fields, buildField(def, in, form, false))
	}
	if form.Error != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "register", data)
}
