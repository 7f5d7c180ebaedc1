package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"stayengine/internal/app/middleware"
)

// FieldError describes one rejected field using its JSON name when present.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Error wraps middleware.ErrValidation with the offending fields.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Param != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", f.Field, f.Rule, f.Param))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Rule))
	}
	return middleware.ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return middleware.ErrValidation }

// Validator checks struct tags on commands and queries.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate ignores messages that are not structs.
func (v *Validator) Validate(ctx context.Context, message any) error {
	rv := reflect.ValueOf(message)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := v.v.StructCtx(ctx, rv.Interface())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

var _ middleware.Validator = (*Validator)(nil)
