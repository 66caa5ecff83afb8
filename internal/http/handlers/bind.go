package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		if tooLarge(ctx, err) {
			return false
		}
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, out))

		return false
	}

	return true
}

// BindForm is BindJSON for application/x-www-form-urlencoded and multipart bodies.
func BindForm(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindWith(out, binding.Form)

	if err != nil {
		if tooLarge(ctx, err) {
			return false
		}
		RespondBadRequest(ctx, "Invalid form body", parseBindError(err, out))

		return false
	}

	return true
}

// tooLarge answers 413 when the body hit the MaxBodyBytes limit.
func tooLarge(ctx *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError

	if !errors.As(err, &maxErr) {
		return false
	}

	RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large",
		fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit), nil)
	return true
}

func parseBindError(err error, out interface{}) interface{} {
	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		rootType := reflect.TypeOf(out)
		for rootType.Kind() == reflect.Pointer {
			rootType = rootType.Elem()
		}

		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   wireName(rootType, fieldError.StructField()),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	// in the event of bad json

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	// in the event of a type mismatch; Field is already the json key path

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := unmatchedTypeError.Field

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	// final fallback if the error could not be deciphered
	return gin.H{"reason": err.Error()}
}

// wireName is the name the client sent the field under: its json tag, then
// its form tag, then the Go field name.
func wireName(root reflect.Type, goName string) string {
	sf, _ := root.FieldByName(goName)

	for _, key := range []string{"json", "form"} {
		if name, _, _ := strings.Cut(sf.Tag.Get(key), ","); name != "" && name != "-" {
			return name
		}
	}

	return goName
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + param + " characters"
	default:
		return "failed " + rule + " validation"
	}
}
