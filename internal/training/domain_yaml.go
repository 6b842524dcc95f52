package training

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// InvalidDomainError reports a domain file that does not have the expected
// shape.
type InvalidDomainError struct {
	Reason string
}

func (e *InvalidDomainError) Error() string { return "invalid domain: " + e.Reason }

func invalidDomain(format string, args ...any) error {
	return &InvalidDomainError{Reason: fmt.Sprintf(format, args...)}
}

type domainFile struct {
	Intents       []yaml.Node  `yaml:"intents"`
	Entities      []string     `yaml:"entities"`
	Actions       []string     `yaml:"actions"`
	Forms         yaml.Node    `yaml:"forms"`
	Slots         yaml.Node    `yaml:"slots"`
	Responses     yaml.Node    `yaml:"responses"`
	Templates     yaml.Node    `yaml:"templates"`
	SessionConfig *sessionFile `yaml:"session_config"`
}

type sessionFile struct {
	SessionExpirationTime *int64 `yaml:"session_expiration_time"`
	CarryOverSlots        *bool  `yaml:"carry_over_slots_to_new_session"`
}

type slotFile struct {
	Type            string   `yaml:"type"`
	InitialValue    any      `yaml:"initial_value"`
	ValueResetDelay *int64   `yaml:"value_reset_delay"`
	AutoFill        *bool    `yaml:"auto_fill"`
	Values          []string `yaml:"values"`
	MinValue        *float64 `yaml:"min_value"`
	MaxValue        *float64 `yaml:"max_value"`
}

type responseFile struct {
	Text    string   `yaml:"text"`
	Image   string   `yaml:"image"`
	Channel string   `yaml:"channel"`
	Buttons []Button `yaml:"buttons"`
	Custom  any      `yaml:"custom"`
}

// ReadDomainYAML parses a domain file. Map-valued sections keep the order
// in which they appear in the file. Shape errors are *InvalidDomainError.
func ReadDomainYAML(data []byte) (Domain, error) {
	var f domainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Domain{}, invalidDomain("%v", err)
	}

	d := Domain{
		Entities:  f.Entities,
		Actions:   f.Actions,
		Responses: map[string][]Response{},
	}

	for i := range f.Intents {
		name, err := intentName(&f.Intents[i])
		if err != nil {
			return Domain{}, err
		}
		d.Intents = append(d.Intents, name)
	}

	forms, err := formNames(&f.Forms)
	if err != nil {
		return Domain{}, err
	}
	d.Forms = forms

	if err := eachPair(&f.Slots, "slots", func(name string, v *yaml.Node) error {
		s, err := decodeSlot(name, v)
		if err != nil {
			return err
		}
		d.Slots = append(d.Slots, s)
		return nil
	}); err != nil {
		return Domain{}, err
	}

	responses := &f.Responses
	if responses.Kind == 0 {
		responses = &f.Templates
	}
	if err := eachPair(responses, "responses", func(name string, v *yaml.Node) error {
		variants, err := decodeResponses(name, v)
		if err != nil {
			return err
		}
		d.Responses[name] = variants
		return nil
	}); err != nil {
		return Domain{}, err
	}

	if sc := f.SessionConfig; sc != nil {
		s := SessionConfig{SessionExpirationTime: 60, CarryOverSlots: true}
		if sc.SessionExpirationTime != nil {
			if *sc.SessionExpirationTime < 0 {
				return Domain{}, invalidDomain("session_expiration_time cannot be negative")
			}
			s.SessionExpirationTime = *sc.SessionExpirationTime
		}
		if sc.CarryOverSlots != nil {
			s.CarryOverSlots = *sc.CarryOverSlots
		}
		d.Session = &s
	}
	return d, nil
}

// intentName accepts "greet" and "greet: {use_entities: true}".
func intentName(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.MappingNode:
		if len(n.Content) == 2 {
			return n.Content[0].Value, nil
		}
	}
	return "", invalidDomain("line %d: intent must be a name or a single-key map", n.Line)
}

// formNames accepts either a list of names or a map keyed by form name.
func formNames(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return nil, invalidDomain("forms: %v", err)
		}
		return names, nil
	case yaml.MappingNode:
		names := make([]string, 0, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			names = append(names, n.Content[i].Value)
		}
		return names, nil
	}
	return nil, invalidDomain("line %d: forms must be a list or a map", n.Line)
}

func eachPair(n *yaml.Node, section string, fn func(string, *yaml.Node) error) error {
	if n.Kind == 0 {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return invalidDomain("line %d: %s must be a map", n.Line, section)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func decodeSlot(name string, n *yaml.Node) (Slot, error) {
	var sf slotFile
	if err := n.Decode(&sf); err != nil {
		return nil, invalidDomain("slot %s: %v", name, err)
	}
	spec := SlotSpec{
		Name:            name,
		Kind:            SlotKind(sf.Type),
		ValueResetDelay: sf.ValueResetDelay,
		AutoFill:        true,
		Values:          sf.Values,
		MinValue:        sf.MinValue,
		MaxValue:        sf.MaxValue,
	}
	if sf.AutoFill != nil {
		spec.AutoFill = *sf.AutoFill
	}
	if sf.InitialValue != nil {
		raw, err := json.Marshal(sf.InitialValue)
		if err != nil {
			return nil, invalidDomain("slot %s: initial_value: %v", name, err)
		}
		spec.InitialValue = raw
	}
	s, err := NewSlot(spec)
	if err != nil {
		return nil, invalidDomain("%v", err)
	}
	return s, nil
}

func decodeResponses(name string, n *yaml.Node) ([]Response, error) {
	var files []responseFile
	if err := n.Decode(&files); err != nil {
		return nil, invalidDomain("response %s: %v", name, err)
	}
	out := make([]Response, 0, len(files))
	for _, rf := range files {
		switch {
		case rf.Custom != nil && rf.Text != "":
			return nil, invalidDomain("response %s: text and custom are mutually exclusive", name)
		case rf.Custom != nil:
			raw, err := json.Marshal(rf.Custom)
			if err != nil {
				return nil, invalidDomain("response %s: custom: %v", name, err)
			}
			out = append(out, Response{Custom: raw})
		case rf.Text != "":
			out = append(out, Response{Text: &ResponseText{
				Text:    rf.Text,
				Image:   rf.Image,
				Channel: rf.Channel,
				Buttons: rf.Buttons,
			}})
		default:
			return nil, invalidDomain("response %s: either text or custom is required", name)
		}
	}
	return out, nil
}
