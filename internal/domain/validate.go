package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/text/language"
)

// ValidationError reports a structural invariant violation on a record. It is
// raised before any write is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// check runs the struct tags of v and maps any failure to reason. Missing
// ownership fields get their own message.
func check(v any, reason string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		for _, fe := range fields {
			if fe.Field() == "Bot" || fe.Field() == "User" {
				return invalid("bot and user cannot be empty or blank spaces")
			}
		}
	}
	return &ValidationError{Reason: reason}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate checks the example text and that every entity span matches the
// text at its rune offsets.
func (t *TrainingExample) Validate() error {
	if blank(t.Intent) || blank(t.Text) {
		return invalid("Training Example name and text cannot be empty or blank spaces")
	}
	runes := []rune(t.Text)
	for _, e := range t.Entities {
		if blank(e.Entity) || blank(e.Value) {
			return invalid("Entity name and value cannot be empty or blank spaces")
		}
		if e.Start < 0 || e.End > len(runes) || e.Start >= e.End {
			return invalid("Invalid entity: %s, value: %s does not match with the position in the text", e.Entity, e.Value)
		}
		if got := string(runes[e.Start:e.End]); got != e.Value {
			return invalid("Invalid entity: %s, value: %s does not match with the position in the text %s", e.Entity, e.Value, got)
		}
	}
	return check(t, "Training Example name and text cannot be empty or blank spaces")
}

// Validate checks that both sides of the synonym are present.
func (s *EntitySynonym) Validate() error {
	return check(s, "Synonym name and value cannot be empty or blank spaces")
}

// Validate checks that the lookup name and element are present.
func (l *LookupTable) Validate() error {
	return check(l, "Lookup name and value cannot be empty or blank spaces")
}

// Validate checks that the regex name and pattern are present.
func (r *RegexFeature) Validate() error {
	return check(r, "Regex name and pattern cannot be empty or blank spaces")
}

func (i *Intent) Validate() error { return check(i, "Intent Name cannot be empty or blank spaces") }
func (e *Entity) Validate() error { return check(e, "Entity Name cannot be empty or blank spaces") }
func (f *Form) Validate() error   { return check(f, "Form name cannot be empty or blank spaces") }
func (a *Action) Validate() error { return check(a, "Action name cannot be empty or blank spaces") }

// Validate checks that exactly one of the text or custom variants is set and
// that the text variant is well formed.
func (r *Response) Validate() error {
	if blank(r.Name) {
		return invalid("Response name cannot be empty or blank spaces")
	}
	hasText, hasCustom := r.Text != nil, r.HasCustom()
	switch {
	case hasText && hasCustom:
		return invalid("Response must contain either text or custom, not both")
	case !hasText && !hasCustom:
		return invalid("Response must contain either text or custom")
	case hasCustom:
		if !json.Valid(r.Custom) {
			return invalid("Response custom must be a valid JSON document")
		}
	case hasText:
		if blank(r.Text.Text) {
			return invalid("Response text cannot be empty or blank spaces")
		}
		for _, b := range r.Text.Buttons {
			if blank(b.Title) || blank(b.Payload) {
				return invalid("Response title and payload cannot be empty or blank spaces")
			}
		}
	}
	return check(r, "Response name cannot be empty or blank spaces")
}

// Validate checks the slot type and its type-specific fields. Float slots
// without bounds get the defaults 0.0 and 1.0 filled in.
func (s *Slot) Validate() error {
	if blank(s.Name) {
		return invalid("Slot name cannot be empty or blank spaces")
	}
	switch s.Type {
	case SlotFloat:
		if s.MinValue == nil {
			v := 0.0
			s.MinValue = &v
		}
		if s.MaxValue == nil {
			v := 1.0
			s.MaxValue = &v
		}
		if *s.MinValue >= *s.MaxValue {
			return invalid("minimum value should be less than maximum value")
		}
		if present(s.InitialValue) {
			var f float64
			if err := json.Unmarshal(s.InitialValue, &f); err != nil {
				return invalid("initial value for float slot should be a number")
			}
		}
	case SlotCategorical:
		if len(s.Values) == 0 {
			return invalid("CategoricalSlot must have list of categories in values field")
		}
	case SlotText, SlotBoolean, SlotList, SlotUnfeaturized:
	default:
		return invalid("Invalid slot type: %q", s.Type)
	}
	if s.ValueResetDelay != nil && *s.ValueResetDelay < 0 {
		return invalid("value_reset_delay cannot be negative")
	}
	if len(s.InitialValue) > 0 && !json.Valid(s.InitialValue) {
		return invalid("initial value must be a valid JSON value")
	}
	return check(s, "Slot name cannot be empty or blank spaces")
}

// Validate checks that the story starts with a user turn and ends with an
// action.
func (s *Story) Validate() error {
	if blank(s.BlockName) {
		return invalid("Story path name cannot be empty or blank spaces")
	}
	if len(s.Events) == 0 {
		return invalid("Stories cannot be empty")
	}
	if s.Events[0].Type != EventUser {
		return invalid("Stories must start with intent")
	}
	if s.Events[len(s.Events)-1].Type != EventAction {
		return invalid("Stories must end with action")
	}
	for _, e := range s.Events {
		if e.Type != EventUser && e.Type != EventAction {
			return invalid("Invalid story event type: %q", e.Type)
		}
		if blank(e.Name) {
			return invalid("Story event name cannot be empty or blank spaces")
		}
	}
	return check(s, "Story path name cannot be empty or blank spaces")
}

// Validate checks the language tag and that pipeline and policies are lists.
func (c *Config) Validate() error {
	lang := c.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	if _, err := language.Parse(lang); err != nil {
		return invalid("Invalid language: %q", lang)
	}
	for name, doc := range map[string][]byte{"pipeline": c.Pipeline, "policies": c.Policies} {
		if !present(doc) {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(doc, &list); err != nil {
			return invalid("%s must be a list", name)
		}
	}
	return check(c, "Config bot and user cannot be empty or blank spaces")
}

// Validate checks the session expiry.
func (s *SessionConfig) Validate() error {
	return check(s, "Session expiration time cannot be negative")
}
