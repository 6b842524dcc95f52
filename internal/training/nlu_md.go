package training

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Markdown NLU section kinds.
const (
	sectionIntent  = "intent"
	sectionSynonym = "synonym"
	sectionRegex   = "regex"
	sectionLookup  = "lookup"
)

// ReadNLUMarkdown parses training data in the markdown NLU format:
//
//	## intent:greet
//	- hello
//	- I live in [Berlin](city)
//	## synonym:New York
//	- NYC
//	## regex:zipcode
//	- [0-9]{5}
//	## lookup:cities
//	- Berlin
//
// An inline annotation with an explicit value, [NYC](city:New York), also
// records a synonym.
func ReadNLUMarkdown(r io.Reader) (TrainingData, error) {
	td := TrainingData{Synonyms: map[string]string{}}
	lookups := map[string]int{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var kind, name string
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "<!--") {
			continue
		}

		if strings.HasPrefix(line, "##") {
			header := strings.TrimSpace(strings.TrimLeft(line, "#"))
			k, n, ok := strings.Cut(header, ":")
			k, n = strings.TrimSpace(k), strings.TrimSpace(n)
			if !ok || n == "" {
				return TrainingData{}, fmt.Errorf("nlu line %d: malformed section header %q", lineNo, line)
			}
			switch k {
			case sectionIntent, sectionSynonym, sectionRegex, sectionLookup:
			default:
				return TrainingData{}, fmt.Errorf("nlu line %d: unknown section %q", lineNo, k)
			}
			kind, name = k, n
			continue
		}

		item, ok := listItem(line)
		if !ok {
			continue
		}
		if kind == "" {
			return TrainingData{}, fmt.Errorf("nlu line %d: item outside of a section", lineNo)
		}

		switch kind {
		case sectionIntent:
			text, entities := ParseEntityMarkup(item)
			td.Examples = append(td.Examples, Example{Text: text, Intent: name, Entities: entities})
			for surface, value := range Synonyms(text, entities) {
				td.Synonyms[surface] = value
			}
		case sectionSynonym:
			td.Synonyms[item] = name
		case sectionRegex:
			td.RegexFeatures = append(td.RegexFeatures, RegexFeature{Name: name, Pattern: item})
		case sectionLookup:
			i, seen := lookups[name]
			if !seen {
				i = len(td.LookupTables)
				lookups[name] = i
				td.LookupTables = append(td.LookupTables, LookupTable{Name: name})
			}
			td.LookupTables[i].Elements = append(td.LookupTables[i].Elements, item)
		}
	}
	if err := sc.Err(); err != nil {
		return TrainingData{}, err
	}
	return td, nil
}

func listItem(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, marker) {
			item := strings.TrimSpace(line[len(marker):])
			return item, item != ""
		}
	}
	return "", false
}
