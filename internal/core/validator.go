package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"fairweather/internal/types"
)

// Validator wraps go-playground/validator with the domain tags used by
// request structs:
//
//	rule_mode       any evaluator mode or alias
//	transport_mode  moto, car, walk or bike
//	schedule_mode   now or scheduled
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// ValidationError describes one failed field, named by its JSON key.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("rule_mode", func(fl validator.FieldLevel) bool {
		_, ok := types.ParseMode(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("transport_mode", func(fl validator.FieldLevel) bool {
		m, ok := types.ParseMode(fl.Field().String())
		return ok && m.IsTransport()
	}))
	must(v.RegisterValidation("schedule_mode", func(fl validator.FieldLevel) bool {
		return types.ScheduleMode(fl.Field().String()).IsValid()
	}))

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns nil or an AppError whose code is that of the first
// failed field; every failure is listed under details.validation_errors.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Code:    tagToErrorCode(fe.Tag(), fe.Field()),
			Message: fieldMessage(fe),
		})
	}
	return types.NewAppErrorWithDetails(types.ErrorCode(out[0].Code), out[0].Message, err,
		map[string]any{"validation_errors": out})
}

// tagToErrorCode maps a failed tag (and, for range checks, the field name)
// to an API error code.
func tagToErrorCode(tag, field string) string {
	switch tag {
	case "required":
		return string(types.ErrCodeValidationMissingField)
	case "latitude":
		return string(types.ErrCodeValidationInvalidLat)
	case "longitude":
		return string(types.ErrCodeValidationInvalidLon)
	case "rule_mode", "transport_mode", "schedule_mode":
		return string(types.ErrCodeValidationInvalidMode)
	}
	switch field {
	case "lat":
		return string(types.ErrCodeValidationInvalidLat)
	case "lon":
		return string(types.ErrCodeValidationInvalidLon)
	}
	return string(types.ErrCodeValidationInvalidValue)
}

func fieldMessage(fe validator.FieldError) string {
	name := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "gte", "min":
		return name + " must be at least " + fe.Param()
	case "lte", "max":
		return name + " must be at most " + fe.Param()
	case "gt":
		return name + " must be greater than " + fe.Param()
	case "latitude", "longitude":
		return name + " is out of range"
	case "rule_mode", "transport_mode", "schedule_mode":
		return name + " is not a supported mode"
	}
	return name + " is invalid"
}

// fieldPath drops the top-level struct name from the namespace:
// "Request.origin.lat" becomes "origin.lat".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
