package training

import (
	"encoding/json"
	"time"
)

// StoryStart is the checkpoint every persisted story step begins from.
const StoryStart = "STORY_START"

// Intent is a parsed intent with its confidence.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Event is either UserUttered or ActionExecuted.
type Event interface {
	EventName() string
	event()
}

// UserUttered records a user turn. Text carries the intent name for stories
// rebuilt from storage.
type UserUttered struct {
	Text      string
	Intent    Intent
	Timestamp float64
}

// ActionExecuted records a bot action.
type ActionExecuted struct {
	ActionName string
	Timestamp  float64
}

func (e UserUttered) EventName() string    { return e.Intent.Name }
func (e ActionExecuted) EventName() string { return e.ActionName }

func (UserUttered) event()    {}
func (ActionExecuted) event() {}

func (e UserUttered) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"event":      "user",
		"text":       e.Text,
		"parse_data": map[string]any{"intent": e.Intent},
		"timestamp":  e.Timestamp,
	})
}

func (e ActionExecuted) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"event":     "action",
		"name":      e.ActionName,
		"timestamp": e.Timestamp,
	})
}

// StoryStep is one story block.
type StoryStep struct {
	BlockName        string   `json:"block_name"`
	Events           []Event  `json:"events"`
	StartCheckpoints []string `json:"start_checkpoints"`
}

// StoryGraph is the set of story steps of a bot.
type StoryGraph struct {
	Steps []StoryStep `json:"story_steps"`
}

// NewUserUttered builds a user event for intent with full confidence.
func NewUserUttered(intent string, at time.Time) UserUttered {
	return UserUttered{
		Text:      intent,
		Intent:    Intent{Name: intent, Confidence: 1.0},
		Timestamp: epoch(at),
	}
}

// NewActionExecuted builds an action event.
func NewActionExecuted(action string, at time.Time) ActionExecuted {
	return ActionExecuted{ActionName: action, Timestamp: epoch(at)}
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
