package validation

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
)

// ReportPayout is the only report type currently produced.
const ReportPayout = "payout"

// SupportedReports lists the accepted values of the --report flag.
var SupportedReports = []string{ReportPayout}

// ReportOptions are the command-line options of a report run.
type ReportOptions struct {
	Report     string   `flag:"report" validate:"required,reporttype"`
	Files      []string `flag:"files" validate:"min=1,dive,required"`
	ConfigFile string   `flag:"config"`
	LogLevel   string   `flag:"log-level" validate:"omitempty,oneof=debug info warn warning error"`
}

// OptionsValidator validates ReportOptions using struct tags.
type OptionsValidator struct {
	validator *validator.Validate
}

// NewOptionsValidator creates a validator with the report-specific rules
// registered.
func NewOptionsValidator() *OptionsValidator {
	v := validator.New()

	v.RegisterValidation("reporttype", isSupportedReport)

	// Use flag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("flag")
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &OptionsValidator{validator: v}
}

// Validate returns a VALIDATION error listing every invalid option.
func (o *OptionsValidator) Validate(opts ReportOptions) error {
	err := o.validator.Struct(opts)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewInternalError("failed to validate options", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.NewAppValidationError(strings.Join(messages, "; ")).
		WithContext("fields", len(fieldErrs))
}

func isSupportedReport(fl validator.FieldLevel) bool {
	return slices.Contains(SupportedReports, fl.Field().String())
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		if strings.HasPrefix(field, "files[") {
			return "file path must not be empty"
		}
		return fmt.Sprintf("--%s is required", field)
	case "min":
		if field == "files" {
			return "at least one file is required"
		}
		return fmt.Sprintf("--%s must have at least %s values", field, param)
	case "oneof":
		return fmt.Sprintf("--%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "reporttype":
		return fmt.Sprintf("--%s must be one of: %s (got %q)", field, strings.Join(SupportedReports, ", "), err.Value())
	default:
		return fmt.Sprintf("--%s failed %s validation", field, err.Tag())
	}
}
