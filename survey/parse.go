package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mbolis/survey-intake/model"
)

// submissionBody mirrors the accepted JSON fields. Pointers distinguish absent from zero.
type submissionBody struct {
	Name         *string `json:"name" validate:"required,min=1,max=100"`
	Email        *string `json:"email" validate:"required,email_address"`
	Age          *int    `json:"age" validate:"required,gte=13,lte=120"`
	Consent      *bool   `json:"consent" validate:"required,eq=true"`
	Rating       *int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comments     *string `json:"comments" validate:"omitempty,max=1000"`
	Source       *string `json:"source" validate:"omitempty,max=100"`
	UserAgent    *string `json:"user_agent"`
	SubmissionID *string `json:"submission_id"`
}

// bodyField binds a JSON key to its destination and the type name reported on mismatch.
type bodyField struct {
	name     string
	typeName string
	dst      any
}

func (b *submissionBody) fields() []bodyField {
	return []bodyField{
		{"name", "str", &b.Name},
		{"email", "str", &b.Email},
		{"age", "integer", &b.Age},
		{"consent", "bool", &b.Consent},
		{"rating", "integer", &b.Rating},
		{"comments", "str", &b.Comments},
		{"source", "str", &b.Source},
		{"user_agent", "str", &b.UserAgent},
		{"submission_id", "str", &b.SubmissionID},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// emails are accepted with surrounding whitespace; normalization trims it later
	_ = validate.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return validate.Var(strings.TrimSpace(fl.Field().String()), "required,email") == nil
	})
}

// Parse decodes and validates a raw request body.
// It returns an *InvalidBodyError when body is not a JSON object and a *ValidationError
// listing every violated constraint otherwise.
func Parse(body []byte) (model.SurveySubmission, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return model.SurveySubmission{}, &InvalidBodyError{Reason: "empty body"}
	}
	if trimmed[0] != '{' {
		return model.SurveySubmission{}, &InvalidBodyError{Reason: "not a JSON object"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return model.SurveySubmission{}, &InvalidBodyError{Reason: err.Error()}
	}

	var b submissionBody
	var errs []FieldError
	mistyped := map[string]bool{}
	for _, f := range b.fields() {
		data, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			mistyped[f.name] = true
			errs = append(errs, typeError(f))
		}
	}

	if err := validate.Struct(&b); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.SurveySubmission{}, err
		}
		for _, fe := range verrs {
			if mistyped[fe.Field()] {
				continue
			}
			errs = append(errs, fieldError(fe))
		}
	}
	if len(errs) > 0 {
		sortFieldErrors(errs, b.fields())
		return model.SurveySubmission{}, &ValidationError{Fields: errs}
	}

	sub := model.SurveySubmission{
		Name:    *b.Name,
		Email:   *b.Email,
		Age:     *b.Age,
		Consent: *b.Consent,
		Rating:  *b.Rating,
		Source:  b.Source,
	}
	if b.Comments != nil {
		c := strings.TrimSpace(*b.Comments)
		sub.Comments = &c
	}
	if b.UserAgent != nil {
		sub.UserAgent = *b.UserAgent
	}
	if b.SubmissionID != nil {
		sub.SubmissionID = *b.SubmissionID
	}
	return sub, nil
}

func typeError(f bodyField) FieldError {
	msg := map[string]string{
		"str":     "str type expected",
		"integer": "value is not a valid integer",
		"bool":    "value could not be parsed to a boolean",
	}[f.typeName]
	return FieldError{Loc: []string{f.name}, Msg: msg, Type: "type_error." + f.typeName}
}

func fieldError(fe validator.FieldError) FieldError {
	out := FieldError{Loc: []string{fe.Field()}, Type: "value_error"}
	switch fe.Tag() {
	case "required":
		out.Msg, out.Type = "field required", "value_error.missing"
	case "min":
		out.Msg = fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
		out.Type = "value_error.any_str.min_length"
	case "max":
		out.Msg = fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		out.Type = "value_error.any_str.max_length"
	case "gte":
		out.Msg = "ensure this value is greater than or equal to " + fe.Param()
		out.Type = "value_error.number.not_ge"
	case "lte":
		out.Msg = "ensure this value is less than or equal to " + fe.Param()
		out.Type = "value_error.number.not_le"
	case "eq":
		out.Msg = fe.Field() + " must be true"
	case "email_address":
		out.Msg, out.Type = "value is not a valid email address", "value_error.email"
	default:
		out.Msg = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return out
}

// sortFieldErrors orders errors by declaration order of the body fields.
func sortFieldErrors(errs []FieldError, fields []bodyField) {
	rank := make(map[string]int, len(fields))
	for i, f := range fields {
		rank[f.name] = i
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return rank[errs[i].Field()] < rank[errs[j].Field()]
	})
}
