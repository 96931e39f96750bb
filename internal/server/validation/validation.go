// Package validation checks user input and turns validator and database
// constraint errors into per-field messages fit for display.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/dbx"
	"github.com/go-playground/validator/v10"
)

// FieldError is one message tied to an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Struct when input fails validation. It matches
// common.ErrValidation under errors.Is.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == common.ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates v against its validate tags. The returned error is an
// Errors value, or nil.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if fields, ok := Translate(err); ok {
		return Errors(fields)
	}
	return fmt.Errorf("validate: %w", err)
}

// Translate converts err into field messages. It understands Errors,
// validator.ValidationErrors and Postgres constraint violations; for any
// other error it returns false.
func Translate(err error) ([]FieldError, bool) {
	if err == nil {
		return nil, false
	}

	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Message: message(fe.Field(), fe.Tag(), fe.Param())})
		}
		return out, true
	}

	if pgErr, ok := dbx.PgError(err); ok {
		var field, tag, param string
		switch pgErr.Code {
		case dbx.CodeNotNullViolation:
			field, tag = pgErr.ColumnName, "required"
		case dbx.CodeCheckViolation:
			field, tag = constraintField(pgErr.ConstraintName)
		case dbx.CodeStringTooLong:
			field, param = tooLongField(pgErr.ColumnName, pgErr.Message)
			tag = "max"
		default:
			return nil, false
		}
		if field == "" {
			return nil, false
		}
		return []FieldError{{Field: field, Message: message(field, tag, param)}}, true
	}

	return nil, false
}

// constraintField maps a CHECK constraint of the schema to the field it guards.
func constraintField(constraint string) (field, tag string) {
	switch constraint {
	case "jobs_company_not_blank":
		return "company", "required"
	case "jobs_position_not_blank":
		return "position", "required"
	case "jobs_status_check":
		return "status", "oneof"
	}
	return "", ""
}

var varcharLen = regexp.MustCompile(`character varying\((\d+)\)`)

// columnsByLength resolves 22001 errors, which Postgres reports without a
// column name.
var columnsByLength = map[string]string{
	"50":  "company",
	"100": "position",
}

func tooLongField(column, msg string) (field, limit string) {
	m := varcharLen.FindStringSubmatch(msg)
	if m != nil {
		limit = m[1]
	}
	if column != "" {
		return column, limit
	}
	return columnsByLength[limit], limit
}

var messages = map[string]string{
	"company.required":  "Please provide company name",
	"position.required": "Please provide position",
	"username.required": "Please provide a user name",
	"password.required": "Please provide a password",
}

func message(field, tag, param string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	label := strings.ToUpper(field[:1]) + field[1:]
	switch tag {
	case "required":
		return label + " is required"
	case "max":
		if param == "" {
			return label + " is too long"
		}
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "oneof":
		if param == "" {
			param = "applied interview declined pending"
		}
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(param), ", "))
	}
	return label + " is invalid"
}
