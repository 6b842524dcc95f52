// Package domain defines the persistence models for per-bot training data,
// domain definitions, and channel configuration. These types are mapped with
// GORM and form the normalized document layer of the bot backend: one table
// per concept, every row owned by exactly one bot.
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a bot record. Records are never physically
// removed; removal flips the status to StatusInactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Record carries the ownership and audit columns shared by every bot-scoped
// collection.
//
// Fields:
//   - ID: time-ordered UUID (v7) primary key, so ordering by id follows insertion.
//   - Bot: owning tenant; indexed for (bot, status) scoped queries.
//   - User: author of the record.
//   - Timestamp: creation time, set on insert.
//   - Status: active or inactive (soft delete).
type Record struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Bot       string    `json:"bot"       gorm:"type:varchar(64);not null;index" validate:"notblank"`
	User      string    `json:"user"      gorm:"type:varchar(64);not null" validate:"notblank"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
	Status    Status    `json:"status"    gorm:"type:varchar(16);not null;index"`
}

// BeforeCreate assigns the id, creation time and active status when unset.
func (r *Record) BeforeCreate(*gorm.DB) error {
	r.stamp()
	return nil
}

func (r *Record) stamp() {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
}

// NewID returns a time-ordered identifier for a new record.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// EntitySpan marks an entity occurrence inside a training example. Start and
// End are rune offsets into the example text.
type EntitySpan struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Value  string `json:"value"  validate:"notblank"`
	Entity string `json:"entity" validate:"notblank"`
}

// TrainingExample is a labelled utterance with optional entity spans.
type TrainingExample struct {
	Record
	Intent   string       `json:"intent"   gorm:"type:varchar(255);not null;index" validate:"notblank"`
	Text     string       `json:"text"     gorm:"type:text;not null"               validate:"notblank"`
	Entities []EntitySpan `json:"entities" gorm:"serializer:json"                  validate:"dive"`
}

// TableName returns the database table name for TrainingExample.
func (TrainingExample) TableName() string { return "training_examples" }

// EntitySynonym maps one surface form to its canonical value.
type EntitySynonym struct {
	Record
	Synonym string `json:"synonym" gorm:"type:varchar(255);not null" validate:"notblank"`
	Value   string `json:"value"   gorm:"type:text;not null"         validate:"notblank"`
}

// TableName returns the database table name for EntitySynonym.
func (EntitySynonym) TableName() string { return "entity_synonyms" }

// LookupTable stores one element of a named lookup table. Elements sharing a
// name are regrouped on load.
type LookupTable struct {
	Record
	Name  string `json:"name"  gorm:"type:varchar(255);not null;index" validate:"notblank"`
	Value string `json:"value" gorm:"type:text;not null"               validate:"notblank"`
}

// TableName returns the database table name for LookupTable.
func (LookupTable) TableName() string { return "lookup_tables" }

// RegexFeature is a named regular expression used as an NLU feature.
type RegexFeature struct {
	Record
	Name    string `json:"name"    gorm:"type:varchar(255);not null" validate:"notblank"`
	Pattern string `json:"pattern" gorm:"type:text;not null"         validate:"notblank"`
}

// TableName returns the database table name for RegexFeature.
func (RegexFeature) TableName() string { return "regex_features" }

// Intent is a bare intent name.
type Intent struct {
	Record
	Name string `json:"name" gorm:"type:varchar(255);not null;index" validate:"notblank"`
}

// TableName returns the database table name for Intent.
func (Intent) TableName() string { return "intents" }

// Entity is a bare domain entity name.
type Entity struct {
	Record
	Name string `json:"name" gorm:"type:varchar(255);not null;index" validate:"notblank"`
}

// TableName returns the database table name for Entity.
func (Entity) TableName() string { return "entities" }

// Form is a bare form name.
type Form struct {
	Record
	Name string `json:"name" gorm:"type:varchar(255);not null;index" validate:"notblank"`
}

// TableName returns the database table name for Form.
func (Form) TableName() string { return "forms" }

// Action is a bare action name.
type Action struct {
	Record
	Name string `json:"name" gorm:"type:varchar(255);not null;index" validate:"notblank"`
}

// TableName returns the database table name for Action.
func (Action) TableName() string { return "actions" }

// ResponseButton is a quick-reply button attached to a text response.
type ResponseButton struct {
	Title   string `json:"title"   yaml:"title"   validate:"notblank"`
	Payload string `json:"payload" yaml:"payload" validate:"notblank"`
}

// ResponseText is the plain-text variant of a response.
type ResponseText struct {
	Text    string           `json:"text"              validate:"notblank"`
	Image   string           `json:"image,omitempty"`
	Channel string           `json:"channel,omitempty"`
	Buttons []ResponseButton `json:"buttons,omitempty" validate:"dive"`
}

// Response is one variant of a named bot response. Exactly one of Text or
// Custom is set; Custom is an opaque document stored verbatim.
type Response struct {
	Record
	Name   string         `json:"name"             gorm:"type:varchar(255);not null;index" validate:"notblank"`
	Text   *ResponseText  `json:"text,omitempty"   gorm:"serializer:json"`
	Custom datatypes.JSON `json:"custom,omitempty" gorm:"type:text;not null"`
}

// TableName returns the database table name for Response.
func (Response) TableName() string { return "responses" }

// BeforeCreate stamps the record and stores an explicit JSON null for an
// absent custom block.
func (r *Response) BeforeCreate(*gorm.DB) error {
	r.stamp()
	r.Custom = orNull(r.Custom)
	return nil
}

// HasCustom reports whether the response carries a custom block.
func (r Response) HasCustom() bool { return present(r.Custom) }

// SlotType enumerates the supported slot kinds.
type SlotType string

const (
	SlotFloat        SlotType = "float"
	SlotCategorical  SlotType = "categorical"
	SlotText         SlotType = "text"
	SlotBoolean      SlotType = "boolean"
	SlotList         SlotType = "list"
	SlotUnfeaturized SlotType = "unfeaturized"
)

// Slot is a typed conversation memory cell. MinValue/MaxValue apply to float
// slots only; Values applies to categorical slots only.
type Slot struct {
	Record
	Name            string         `json:"name"                        gorm:"type:varchar(255);not null;index" validate:"notblank"`
	Type            SlotType       `json:"type"                        gorm:"type:varchar(32);not null"        validate:"oneof=float categorical text boolean list unfeaturized"`
	InitialValue    datatypes.JSON `json:"initial_value,omitempty"     gorm:"type:text;not null"`
	ValueResetDelay *int64         `json:"value_reset_delay,omitempty"`
	AutoFill        bool           `json:"auto_fill"                   gorm:"not null"`
	Values          []string       `json:"values,omitempty"            gorm:"serializer:json"`
	MinValue        *float64       `json:"min_value,omitempty"`
	MaxValue        *float64       `json:"max_value,omitempty"`
}

// TableName returns the database table name for Slot.
func (Slot) TableName() string { return "slots" }

// BeforeCreate stamps the record and stores an explicit JSON null for an
// absent initial value.
func (s *Slot) BeforeCreate(*gorm.DB) error {
	s.stamp()
	s.InitialValue = orNull(s.InitialValue)
	return nil
}

// StoryEventType distinguishes user turns from bot actions in a story.
type StoryEventType string

const (
	EventUser   StoryEventType = "user"
	EventAction StoryEventType = "action"
)

// StoryEvent is one turn of a story: the intent a user expressed, or the
// action the bot executed.
type StoryEvent struct {
	Type StoryEventType `json:"type" validate:"oneof=user action"`
	Name string         `json:"name" validate:"notblank"`
}

// Story is a labelled example dialogue path.
type Story struct {
	Record
	BlockName string       `json:"block_name" gorm:"type:varchar(255);not null" validate:"notblank"`
	Events    []StoryEvent `json:"events"     gorm:"serializer:json"            validate:"dive"`
}

// TableName returns the database table name for Story.
func (Story) TableName() string { return "stories" }

// Config holds the training pipeline and policy configuration of a bot. At
// most one active row exists per bot; removed rows stay behind as inactive.
// Pipeline and Policies are opaque documents.
type Config struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	Bot       string         `json:"bot"       gorm:"type:varchar(64);not null;index"       validate:"notblank"`
	User      string         `json:"user"      gorm:"type:varchar(64);not null"             validate:"notblank"`
	Timestamp time.Time      `json:"timestamp" gorm:"not null"`
	Status    Status         `json:"status"    gorm:"type:varchar(16);not null;index"`
	Language  string         `json:"language"  gorm:"type:varchar(16);not null"`
	Pipeline  datatypes.JSON `json:"pipeline"  gorm:"type:text;not null"`
	Policies  datatypes.JSON `json:"policies"  gorm:"type:text;not null"`
}

// TableName returns the database table name for Config.
func (Config) TableName() string { return "configs" }

// BeforeCreate fills defaults for a new config row.
func (c *Config) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	c.Pipeline = orEmptyList(c.Pipeline)
	c.Policies = orEmptyList(c.Policies)
	return nil
}

// Session defaults applied when a bot has no stored session config.
const (
	DefaultLanguage              = "en"
	DefaultSessionExpirationTime = 60
	DefaultCarryOverSlots        = true
)

// SessionConfig controls conversation session expiry. At most one active row
// exists per bot.
type SessionConfig struct {
	ID                    string    `json:"id"                      gorm:"type:char(36);primaryKey"`
	Bot                   string    `json:"bot"                     gorm:"type:varchar(64);not null;index"       validate:"notblank"`
	User                  string    `json:"user"                    gorm:"type:varchar(64);not null"             validate:"notblank"`
	Timestamp             time.Time `json:"timestamp"               gorm:"not null"`
	Status                Status    `json:"status"                  gorm:"type:varchar(16);not null;index"`
	SessionExpirationTime int64     `json:"session_expiration_time" gorm:"not null"                              validate:"gte=0"`
	CarryOverSlots        bool      `json:"carry_over_slots"        gorm:"not null"`
}

// TableName returns the database table name for SessionConfig.
func (SessionConfig) TableName() string { return "session_configs" }

// BeforeCreate fills the id, timestamp and status of a new session config.
func (s *SessionConfig) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	return nil
}

func present(j datatypes.JSON) bool {
	return len(j) > 0 && string(j) != "null"
}

func orNull(j datatypes.JSON) datatypes.JSON {
	if len(j) == 0 {
		return datatypes.JSON("null")
	}
	return j
}

func orEmptyList(j datatypes.JSON) datatypes.JSON {
	if !present(j) {
		return datatypes.JSON("[]")
	}
	return j
}
