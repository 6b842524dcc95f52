package training

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// ReadStoriesMarkdown parses stories in the markdown format:
//
//	## happy path
//	* greet
//	  - utter_greet
//
// Entity annotations after an intent ("* inform{"city": "Berlin"}") and
// checkpoint lines ("> name") are accepted and dropped. Events are stamped
// with at.
func ReadStoriesMarkdown(r io.Reader, at time.Time) (StoryGraph, error) {
	var (
		graph StoryGraph
		cur   *StoryStep
	)
	flush := func() {
		if cur != nil && len(cur.Events) > 0 {
			graph.Steps = append(graph.Steps, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", strings.HasPrefix(line, "<!--"), strings.HasPrefix(line, ">"):
			continue
		case strings.HasPrefix(line, "##"):
			flush()
			cur = &StoryStep{
				BlockName:        strings.TrimSpace(strings.TrimLeft(line, "#")),
				StartCheckpoints: []string{StoryStart},
			}
		case strings.HasPrefix(line, "*"):
			if cur == nil {
				return StoryGraph{}, fmt.Errorf("stories line %d: user event outside of a story", lineNo)
			}
			intent := strings.TrimSpace(strings.TrimPrefix(line, "*"))
			if i := strings.IndexByte(intent, '{'); i >= 0 {
				intent = strings.TrimSpace(intent[:i])
			}
			if intent == "" {
				return StoryGraph{}, fmt.Errorf("stories line %d: empty intent", lineNo)
			}
			cur.Events = append(cur.Events, NewUserUttered(intent, at))
		case strings.HasPrefix(line, "-"):
			if cur == nil {
				return StoryGraph{}, fmt.Errorf("stories line %d: action outside of a story", lineNo)
			}
			action := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if action == "" {
				return StoryGraph{}, fmt.Errorf("stories line %d: empty action", lineNo)
			}
			cur.Events = append(cur.Events, NewActionExecuted(action, at))
		default:
			return StoryGraph{}, fmt.Errorf("stories line %d: unexpected line %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return StoryGraph{}, err
	}
	flush()
	return graph, nil
}
