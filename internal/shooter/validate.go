package shooter

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MissingImageMessage is shown when a submission has no source image.
const MissingImageMessage = "Please upload an image first!"

// RequestValidator checks a GenerationRequest against the offered tiers and modes.
type RequestValidator struct {
	validate *validator.Validate
	tiers    []int
	modes    []Mode
}

// NewRequestValidator builds a validator. Empty inputs fall back to the defaults.
func NewRequestValidator(tiers []int, modes []Mode) *RequestValidator {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	if len(modes) == 0 {
		modes = DefaultModes
	}
	rv := &RequestValidator{
		validate: validator.New(),
		tiers:    slices.Clone(tiers),
		modes:    slices.Clone(modes),
	}
	_ = rv.validate.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		return slices.Contains(rv.tiers, int(fl.Field().Int()))
	})
	_ = rv.validate.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		return slices.Contains(rv.modes, Mode(fl.Field().String()))
	})
	return rv
}

// Tiers returns the offered image counts.
func (rv *RequestValidator) Tiers() []int { return slices.Clone(rv.tiers) }

// Modes returns the offered modes.
func (rv *RequestValidator) Modes() []Mode { return slices.Clone(rv.modes) }

// Validate returns a *SubmitError describing the first problem, or nil.
func (rv *RequestValidator) Validate(req GenerationRequest) error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &SubmitError{Reason: DefaultFailureMessage, Err: fmt.Errorf("validate request: %w", err)}
	}
	first := fieldErrs[0]
	return &SubmitError{Reason: rv.reason(first), Err: fmt.Errorf("validate request: %w", err)}
}

func (rv *RequestValidator) reason(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Image":
		return MissingImageMessage
	case "Count":
		parts := make([]string, len(rv.tiers))
		for i, t := range rv.tiers {
			parts[i] = strconv.Itoa(t)
		}
		return "Image count must be one of " + strings.Join(parts, ", ")
	case "Mode":
		parts := make([]string, len(rv.modes))
		for i, m := range rv.modes {
			parts[i] = string(m)
		}
		return "Mode must be one of " + strings.Join(parts, ", ")
	case "UserPrompt":
		return "Prompt is too long"
	default:
		return DefaultFailureMessage
	}
}
