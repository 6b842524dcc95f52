package training

import (
	"encoding/json"
	"fmt"
)

// SlotKind is the type tag of a slot.
type SlotKind string

const (
	KindFloat        SlotKind = "float"
	KindCategorical  SlotKind = "categorical"
	KindText         SlotKind = "text"
	KindBoolean      SlotKind = "boolean"
	KindList         SlotKind = "list"
	KindUnfeaturized SlotKind = "unfeaturized"
)

// SlotBase holds the fields every slot kind shares.
type SlotBase struct {
	Name            string          `json:"name"`
	InitialValue    json.RawMessage `json:"initial_value,omitempty"`
	ValueResetDelay *int64          `json:"value_reset_delay,omitempty"`
	AutoFill        bool            `json:"auto_fill"`
}

// Slot is one of FloatSlot, CategoricalSlot, TextSlot, BooleanSlot,
// ListSlot or UnfeaturizedSlot. The set is closed.
type Slot interface {
	Base() SlotBase
	Kind() SlotKind
	sealed()
}

type FloatSlot struct {
	SlotBase
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
}

type CategoricalSlot struct {
	SlotBase
	Values []string `json:"values"`
}

type TextSlot struct{ SlotBase }
type BooleanSlot struct{ SlotBase }
type ListSlot struct{ SlotBase }
type UnfeaturizedSlot struct{ SlotBase }

func (s FloatSlot) Base() SlotBase        { return s.SlotBase }
func (s CategoricalSlot) Base() SlotBase  { return s.SlotBase }
func (s TextSlot) Base() SlotBase         { return s.SlotBase }
func (s BooleanSlot) Base() SlotBase      { return s.SlotBase }
func (s ListSlot) Base() SlotBase         { return s.SlotBase }
func (s UnfeaturizedSlot) Base() SlotBase { return s.SlotBase }

func (FloatSlot) Kind() SlotKind        { return KindFloat }
func (CategoricalSlot) Kind() SlotKind  { return KindCategorical }
func (TextSlot) Kind() SlotKind         { return KindText }
func (BooleanSlot) Kind() SlotKind      { return KindBoolean }
func (ListSlot) Kind() SlotKind         { return KindList }
func (UnfeaturizedSlot) Kind() SlotKind { return KindUnfeaturized }

func (FloatSlot) sealed()        {}
func (CategoricalSlot) sealed()  {}
func (TextSlot) sealed()         {}
func (BooleanSlot) sealed()      {}
func (ListSlot) sealed()         {}
func (UnfeaturizedSlot) sealed() {}

// SlotSpec is the flat, kind-agnostic form of a slot as found in domain files
// and storage rows.
type SlotSpec struct {
	Name            string
	Kind            SlotKind
	InitialValue    json.RawMessage
	ValueResetDelay *int64
	AutoFill        bool
	Values          []string
	MinValue        *float64
	MaxValue        *float64
}

// NewSlot builds the slot variant selected by spec.Kind. Unset float bounds
// default to 0.0 and 1.0.
func NewSlot(spec SlotSpec) (Slot, error) {
	base := SlotBase{
		Name:            spec.Name,
		InitialValue:    spec.InitialValue,
		ValueResetDelay: spec.ValueResetDelay,
		AutoFill:        spec.AutoFill,
	}
	switch spec.Kind {
	case KindFloat:
		s := FloatSlot{SlotBase: base, MinValue: 0.0, MaxValue: 1.0}
		if spec.MinValue != nil {
			s.MinValue = *spec.MinValue
		}
		if spec.MaxValue != nil {
			s.MaxValue = *spec.MaxValue
		}
		return s, nil
	case KindCategorical:
		if len(spec.Values) == 0 {
			return nil, fmt.Errorf("categorical slot %q requires values", spec.Name)
		}
		return CategoricalSlot{SlotBase: base, Values: spec.Values}, nil
	case KindText:
		return TextSlot{base}, nil
	case KindBoolean:
		return BooleanSlot{base}, nil
	case KindList:
		return ListSlot{base}, nil
	case KindUnfeaturized:
		return UnfeaturizedSlot{base}, nil
	}
	return nil, fmt.Errorf("unknown slot type %q for slot %q", spec.Kind, spec.Name)
}

// Spec flattens a slot back into its kind-agnostic form.
func Spec(s Slot) SlotSpec {
	b := s.Base()
	spec := SlotSpec{
		Name:            b.Name,
		Kind:            s.Kind(),
		InitialValue:    b.InitialValue,
		ValueResetDelay: b.ValueResetDelay,
		AutoFill:        b.AutoFill,
	}
	switch v := s.(type) {
	case FloatSlot:
		lo, hi := v.MinValue, v.MaxValue
		spec.MinValue, spec.MaxValue = &lo, &hi
	case CategoricalSlot:
		spec.Values = v.Values
	case TextSlot, BooleanSlot, ListSlot, UnfeaturizedSlot:
	}
	return spec
}

// MarshalJSON on the spec keeps the type tag next to the variant fields.
func (s SlotSpec) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"name":      s.Name,
		"type":      s.Kind,
		"auto_fill": s.AutoFill,
	}
	if len(s.InitialValue) > 0 {
		out["initial_value"] = s.InitialValue
	}
	if s.ValueResetDelay != nil {
		out["value_reset_delay"] = *s.ValueResetDelay
	}
	if s.Values != nil {
		out["values"] = s.Values
	}
	if s.MinValue != nil {
		out["min_value"] = *s.MinValue
	}
	if s.MaxValue != nil {
		out["max_value"] = *s.MaxValue
	}
	return json.Marshal(out)
}
