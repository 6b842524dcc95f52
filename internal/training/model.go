// Package training defines the denormalized in-memory representation handed
// to the training engine: training data (examples, synonyms, lookup tables,
// regex features), the domain (intents, entities, forms, actions, responses,
// slots, session config), story graphs, and the pipeline config. It also
// reads these objects from a project directory (markdown and YAML files).
package training

import "encoding/json"

// Entity is an annotated entity span inside an example. Offsets are rune
// offsets into Example.Text.
type Entity struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Value  string `json:"value"`
	Entity string `json:"entity"`
}

// Example is a single labelled utterance.
type Example struct {
	Text     string   `json:"text"`
	Intent   string   `json:"intent"`
	Entities []Entity `json:"entities,omitempty"`
}

// LookupTable is a named list of elements.
type LookupTable struct {
	Name     string   `json:"name"`
	Elements []string `json:"elements"`
}

// RegexFeature is a named pattern.
type RegexFeature struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// TrainingData is the NLU training input. Synonyms maps a surface form to
// its canonical value.
type TrainingData struct {
	Examples      []Example         `json:"training_examples"`
	Synonyms      map[string]string `json:"entity_synonyms"`
	LookupTables  []LookupTable     `json:"lookup_tables"`
	RegexFeatures []RegexFeature    `json:"regex_features"`
}

// Button is a quick reply attached to a text response.
type Button struct {
	Title   string `json:"title"   yaml:"title"`
	Payload string `json:"payload" yaml:"payload"`
}

// ResponseText is the text variant of a response.
type ResponseText struct {
	Text    string   `json:"text"`
	Image   string   `json:"image,omitempty"`
	Channel string   `json:"channel,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Response is one variant of a named response: either Text or Custom.
type Response struct {
	Text   *ResponseText
	Custom json.RawMessage
}

// MarshalJSON flattens the variant the way domain files write it.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Text != nil {
		return json.Marshal(r.Text)
	}
	return json.Marshal(map[string]json.RawMessage{"custom": r.Custom})
}

// SessionConfig controls conversation session expiry.
type SessionConfig struct {
	SessionExpirationTime int64 `json:"session_expiration_time"`
	CarryOverSlots        bool  `json:"carry_over_slots"`
}

// Domain is the conversational domain of a bot. Session is nil when the
// source did not declare one.
type Domain struct {
	Intents   []string              `json:"intents"`
	Entities  []string              `json:"entities"`
	Forms     []string              `json:"forms"`
	Actions   []string              `json:"actions"`
	Responses map[string][]Response `json:"responses"`
	Slots     []Slot                `json:"slots"`
	Session   *SessionConfig        `json:"session_config,omitempty"`
}

// MarshalJSON writes slots in their flat form so the type tag survives.
func (d Domain) MarshalJSON() ([]byte, error) {
	type plain Domain
	slots := make([]SlotSpec, 0, len(d.Slots))
	for _, s := range d.Slots {
		slots = append(slots, Spec(s))
	}
	return json.Marshal(struct {
		plain
		Slots []SlotSpec `json:"slots"`
	}{plain: plain(d), Slots: slots})
}

// Config is the pipeline configuration. Pipeline and Policies are opaque
// documents passed through to the training engine untouched.
type Config struct {
	Language string          `json:"language"`
	Pipeline json.RawMessage `json:"pipeline"`
	Policies json.RawMessage `json:"policies"`
}
