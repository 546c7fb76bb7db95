// Package form holds the portal's HTML forms: parsing of submitted values,
// the auxiliary list fields and validation.
package form

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"cphorme/internal/validator"
)

// FieldErrors maps a form field name to its message. The empty key holds a
// message for the form as a whole.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e FieldErrors) Get(field string) string {
	return e[field]
}

func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// ListField is a free-form list kept next to a validated form, such as a
// patient's allergies.
type ListField struct {
	Items []string
}

func NewListField(items ...string) ListField {
	l := ListField{Items: []string{}}
	for _, item := range items {
		l.Add(item)
	}
	return l
}

// Add appends value after trimming it. Blank values and values already in
// the list are ignored.
func (l *ListField) Add(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || slices.Contains(l.Items, value) {
		return false
	}
	l.Items = append(l.Items, value)
	return true
}

func (l *ListField) Remove(index int) bool {
	if index < 0 || index >= len(l.Items) {
		return false
	}
	l.Items = slices.Delete(l.Items, index, index+1)
	return true
}

// Values returns a copy of the list, never nil.
func (l ListField) Values() []string {
	if l.Items == nil {
		return []string{}
	}
	return slices.Clone(l.Items)
}

func (l ListField) Len() int {
	return len(l.Items)
}

// ActionSave submits the form. Every other action edits a list field and
// re-renders the form.
const ActionSave = "save"

type action struct {
	name  string
	index int
}

// parseAction splits "remove-allergy:2" into its name and index. Actions
// without an index get -1.
func parseAction(s string) action {
	name, index, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return action{name: name, index: -1}
	}
	i, err := strconv.Atoi(index)
	if err != nil {
		return action{name: name, index: -1}
	}
	return action{name: name, index: i}
}

func validate(v *validator.Validator, form any) FieldErrors {
	if err := v.Validate(form); err != nil {
		return FieldErrors(validator.Errors(err))
	}
	return FieldErrors{}
}

func value(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}
