// Package nodes provides helpers shared by the built-in node type definitions.
package nodes

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Decode unmarshals node params into dst and checks its validate tags.
// Missing params decode as an empty object.
func Decode(node *models.Node, dst any) error {
	params := node.Params
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	if err := json.Unmarshal(params, dst); err != nil {
		return models.NewNodeValidationError(node, "params are not valid JSON", err)
	}

	if err := validate.Struct(dst); err != nil {
		return models.NewNodeValidationError(node, Describe(err), err)
	}

	return nil
}

// Invalid builds a validation error attributed to node.
func Invalid(node *models.Node, format string, args ...any) error {
	return models.NewNodeValidationError(node, fmt.Sprintf(format, args...), nil)
}

// CheckVar validates a single value against validator tags.
func CheckVar(value any, tag string) error {
	return validate.Var(value, tag)
}

// Describe turns a validator error into a short message naming the first failing field.
func Describe(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err.Error()
	}

	fieldErr := validationErrors[0]
	if fieldErr.Param() != "" {
		return fmt.Sprintf("%s failed on %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param())
	}

	return fmt.Sprintf("%s failed on %s", fieldErr.Field(), fieldErr.Tag())
}

// Properties builds an object schema whose properties all have the given types.
func Properties(types map[string]string) *models.JSONSchema {
	schema := models.NewObjectSchema()
	for name, typ := range types {
		schema.Properties[name] = &models.Property{Type: typ}
	}

	return schema
}

// CheckStruct validates a struct against its validate tags.
func CheckStruct(value any) error {
	return validate.Struct(value)
}
