package training

import (
	"reflect"
	"testing"
)

func TestParseEntityMarkup(t *testing.T) {
	text, ents := ParseEntityMarkup("fly from [NYC](city:New York) to [Berlin](city)")
	if text != "fly from NYC to Berlin" {
		t.Fatalf("plain text = %q", text)
	}
	want := []Entity{
		{Start: 9, End: 12, Value: "New York", Entity: "city"},
		{Start: 16, End: 22, Value: "Berlin", Entity: "city"},
	}
	if !reflect.DeepEqual(ents, want) {
		t.Fatalf("entities = %#v", ents)
	}
}

func TestParseEntityMarkup_NoAnnotations(t *testing.T) {
	text, ents := ParseEntityMarkup("just text")
	if text != "just text" || ents != nil {
		t.Fatalf("got %q %#v", text, ents)
	}
}

func TestParseEntityMarkup_RuneOffsets(t *testing.T) {
	text, ents := ParseEntityMarkup("café in [München](city)")
	if text != "café in München" {
		t.Fatalf("plain text = %q", text)
	}
	if len(ents) != 1 || ents[0].Start != 8 || ents[0].End != 15 {
		t.Fatalf("entity span = %#v", ents)
	}
	if got := string([]rune(text)[ents[0].Start:ents[0].End]); got != "München" {
		t.Fatalf("span text = %q", got)
	}
}

func TestInsertEntityMarkup_RoundTrip(t *testing.T) {
	for _, in := range []string{
		"fly from [NYC](city:New York) to [Berlin](city)",
		"café in [München](city)",
		"no entities here",
	} {
		text, ents := ParseEntityMarkup(in)
		if got := InsertEntityMarkup(text, ents); got != in {
			t.Fatalf("round trip of %q gave %q", in, got)
		}
	}
}

func TestInsertEntityMarkup_SkipsBadSpans(t *testing.T) {
	got := InsertEntityMarkup("hello", []Entity{{Start: 3, End: 40, Value: "x", Entity: "e"}})
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestSynonyms(t *testing.T) {
	text, ents := ParseEntityMarkup("[NYC](city:New York) and [Rome](city)")
	got := Synonyms(text, ents)
	if len(got) != 1 || got["NYC"] != "New York" {
		t.Fatalf("synonyms = %#v", got)
	}
}
