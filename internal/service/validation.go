package service

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// ValidationError reports problems with submitted form fields, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// validator collects field errors.
type validator map[string]string

func (v validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required.")
	}
}

func (v validator) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.required(field, value)
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "Invalid email address.")
	}
}

func (v validator) date(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.required(field, value)
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		v.add(field, "Not a valid date value.")
	}
}

func (v validator) maxBytes(field, value string, n int) {
	if len(value) > n {
		v.add(field, fmt.Sprintf("Must be at most %d bytes.", n))
	}
}

func (v validator) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}
