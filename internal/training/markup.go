package training

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// entityMarkup matches inline entity annotations: [text](entity) or
// [text](entity:value).
var entityMarkup = regexp.MustCompile(`\[(?P<entity_text>[^\]]+)\]\((?P<entity>[^:)]*?)(?::(?P<value>[^)]+))?\)`)

// ParseEntityMarkup strips entity annotations from an example and returns
// the plain text with the entity spans it contained. Spans are rune offsets
// into the returned text. An annotation without an explicit value takes the
// annotated text as its value.
func ParseEntityMarkup(annotated string) (string, []Entity) {
	matches := entityMarkup.FindAllStringSubmatchIndex(annotated, -1)
	if len(matches) == 0 {
		return annotated, nil
	}

	var (
		b        strings.Builder
		entities = make([]Entity, 0, len(matches))
		last     int
		runePos  int
	)
	for _, m := range matches {
		before := annotated[last:m[0]]
		b.WriteString(before)
		runePos += utf8.RuneCountInString(before)

		surface := annotated[m[2]:m[3]]
		name := annotated[m[4]:m[5]]
		value := surface
		if m[6] >= 0 {
			value = annotated[m[6]:m[7]]
		}
		start := runePos
		b.WriteString(surface)
		runePos += utf8.RuneCountInString(surface)
		entities = append(entities, Entity{Start: start, End: runePos, Value: value, Entity: name})
		last = m[1]
	}
	b.WriteString(annotated[last:])
	return b.String(), entities
}

// InsertEntityMarkup is the inverse of ParseEntityMarkup. Spans that do not
// fit the text are ignored.
func InsertEntityMarkup(text string, entities []Entity) string {
	if len(entities) == 0 {
		return text
	}
	sorted := append([]Entity(nil), entities...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, e := range sorted {
		if e.Start < pos || e.End > len(runes) || e.Start >= e.End {
			continue
		}
		b.WriteString(string(runes[pos:e.Start]))
		surface := string(runes[e.Start:e.End])
		b.WriteString("[" + surface + "](" + e.Entity)
		if e.Value != "" && e.Value != surface {
			b.WriteString(":" + e.Value)
		}
		b.WriteString(")")
		pos = e.End
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// Synonyms returns surface form to value mappings for entities whose value
// differs from the annotated text.
func Synonyms(text string, entities []Entity) map[string]string {
	runes := []rune(text)
	out := map[string]string{}
	for _, e := range entities {
		if e.Start < 0 || e.End > len(runes) || e.Start >= e.End {
			continue
		}
		if surface := string(runes[e.Start:e.End]); surface != e.Value {
			out[surface] = e.Value
		}
	}
	return out
}
