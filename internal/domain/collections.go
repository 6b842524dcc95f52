package domain

// Collection names a bot-scoped table whose rows can be soft deleted through
// the data API.
type Collection string

const (
	CollectionTrainingExamples Collection = "training_examples"
	CollectionEntitySynonyms   Collection = "entity_synonyms"
	CollectionLookupTables     Collection = "lookup_tables"
	CollectionRegexFeatures    Collection = "regex_features"
	CollectionIntents          Collection = "intents"
	CollectionEntities         Collection = "entities"
	CollectionForms            Collection = "forms"
	CollectionActions          Collection = "actions"
	CollectionResponses        Collection = "responses"
	CollectionSlots            Collection = "slots"
	CollectionStories          Collection = "stories"
	CollectionConfigs          Collection = "configs"
	CollectionSessionConfigs   Collection = "session_configs"
)

// Model returns a zero model pointer for the collection.
func (c Collection) Model() (any, bool) {
	switch c {
	case CollectionTrainingExamples:
		return &TrainingExample{}, true
	case CollectionEntitySynonyms:
		return &EntitySynonym{}, true
	case CollectionLookupTables:
		return &LookupTable{}, true
	case CollectionRegexFeatures:
		return &RegexFeature{}, true
	case CollectionIntents:
		return &Intent{}, true
	case CollectionEntities:
		return &Entity{}, true
	case CollectionForms:
		return &Form{}, true
	case CollectionActions:
		return &Action{}, true
	case CollectionResponses:
		return &Response{}, true
	case CollectionSlots:
		return &Slot{}, true
	case CollectionStories:
		return &Story{}, true
	case CollectionConfigs:
		return &Config{}, true
	case CollectionSessionConfigs:
		return &SessionConfig{}, true
	}
	return nil, false
}

// AllModels lists every model migrated by the repository layer.
func AllModels() []any {
	return []any{
		&TrainingExample{},
		&EntitySynonym{},
		&LookupTable{},
		&RegexFeature{},
		&Intent{},
		&Entity{},
		&Form{},
		&Action{},
		&Response{},
		&Slot{},
		&Story{},
		&Config{},
		&SessionConfig{},
		&ChannelConfig{},
		&DeliveryReceipt{},
		&Idempotency{},
	}
}
