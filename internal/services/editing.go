package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/search"
	"github.com/tbourn/go-bot-backend/internal/training"
)

// NamedItem is one entry of an intent, entity or action listing.
type NamedItem struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ExampleItem is one training example with its entity markup restored.
type ExampleItem struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
}

// AddIntent creates an intent, or fails with ErrIntentExists.
func (s *BotDataService) AddIntent(ctx context.Context, name, bot, user string) (string, error) {
	ctx, span := s.start(ctx, "AddIntent", bot)
	defer span.End()

	row := &domain.Intent{Record: owner(bot, user), Name: strings.TrimSpace(name)}
	if err := addNamed(ctx, s, row, bot, row.Name, ErrIntentExists); err != nil {
		return "", fail(ctx, span, "AddIntent", err)
	}
	return row.ID, nil
}

// AddEntity creates a domain entity and, when missing, a text slot of the
// same name. It fails with ErrEntityExists.
func (s *BotDataService) AddEntity(ctx context.Context, name, bot, user string) (string, error) {
	ctx, span := s.start(ctx, "AddEntity", bot)
	defer span.End()

	row := &domain.Entity{Record: owner(bot, user), Name: strings.TrimSpace(name)}
	if err := addNamed(ctx, s, row, bot, row.Name, ErrEntityExists); err != nil {
		return "", fail(ctx, span, "AddEntity", err)
	}
	if err := s.addTextSlots(ctx, []string{row.Name}, bot, user); err != nil {
		return "", fail(ctx, span, "AddEntity", err)
	}
	return row.ID, nil
}

// AddAction creates an action, or fails with ErrActionExists.
func (s *BotDataService) AddAction(ctx context.Context, name, bot, user string) (string, error) {
	ctx, span := s.start(ctx, "AddAction", bot)
	defer span.End()

	row := &domain.Action{Record: owner(bot, user), Name: strings.TrimSpace(name)}
	if err := addNamed(ctx, s, row, bot, row.Name, ErrActionExists); err != nil {
		return "", fail(ctx, span, "AddAction", err)
	}
	return row.ID, nil
}

// addNamed validates row, checks that no active row of the same name exists
// and inserts it.
func addNamed[T any, PT interface {
	*T
	validator
}](ctx context.Context, s *BotDataService, row PT, bot, name string, exists error) error {
	if err := row.Validate(); err != nil {
		return err
	}
	found, err := repo.ExistsActive(ctx, s.DB, new(T), bot, "name", name)
	if err != nil {
		return err
	}
	if found {
		return exists
	}
	return repo.Insert[T](ctx, s.DB, row)
}

// AddTrainingExample stores an annotated example under intent. Entity
// markup ([text](entity) or [text](entity:value)) is stripped from the
// stored text and kept as spans; every annotated entity is registered as a
// domain entity and a text slot when missing. The intent is created when
// missing. Existence is checked against the stripped text.
func (s *BotDataService) AddTrainingExample(ctx context.Context, annotated, intent, bot, user string) (string, error) {
	ctx, span := s.start(ctx, "AddTrainingExample", bot)
	defer span.End()

	text, entities := training.ParseEntityMarkup(strings.TrimSpace(annotated))
	row := &domain.TrainingExample{
		Record:   owner(bot, user),
		Intent:   strings.TrimSpace(intent),
		Text:     text,
		Entities: toSpans(entities),
	}
	if err := row.Validate(); err != nil {
		return "", fail(ctx, span, "AddTrainingExample", err)
	}

	found, err := repo.ExistsActive(ctx, s.DB, &domain.TrainingExample{}, bot, "text", text)
	if err != nil {
		return "", fail(ctx, span, "AddTrainingExample", err)
	}
	if found {
		return "", fail(ctx, span, "AddTrainingExample", ErrExampleExists)
	}

	known, err := repo.ExistsActive(ctx, s.DB, &domain.Intent{}, bot, "name", row.Intent)
	if err != nil {
		return "", fail(ctx, span, "AddTrainingExample", err)
	}
	if !known {
		if err := repo.Insert(ctx, s.DB, &domain.Intent{Record: owner(bot, user), Name: row.Intent}); err != nil {
			return "", fail(ctx, span, "AddTrainingExample", err)
		}
	}

	if len(entities) > 0 {
		names := make([]string, 0, len(entities))
		for _, e := range entities {
			names = append(names, e.Entity)
		}
		fresh, err := s.newNames(ctx, &domain.Entity{}, bot, names)
		if err != nil {
			return "", fail(ctx, span, "AddTrainingExample", err)
		}
		rows := make([]domain.Entity, 0, len(fresh))
		for _, n := range fresh {
			rows = append(rows, domain.Entity{Record: owner(bot, user), Name: n})
		}
		if err := repo.InsertBatch(ctx, s.DB, rows); err != nil {
			return "", fail(ctx, span, "AddTrainingExample", err)
		}
		if err := s.addTextSlots(ctx, names, bot, user); err != nil {
			return "", fail(ctx, span, "AddTrainingExample", err)
		}
	}

	if err := repo.Insert(ctx, s.DB, row); err != nil {
		return "", fail(ctx, span, "AddTrainingExample", err)
	}
	return row.ID, nil
}

// addTextSlots creates a text slot for every name without an active slot.
func (s *BotDataService) addTextSlots(ctx context.Context, names []string, bot, user string) error {
	fresh, err := s.newNames(ctx, &domain.Slot{}, bot, names)
	if err != nil {
		return err
	}
	rows := make([]domain.Slot, 0, len(fresh))
	for _, n := range fresh {
		rows = append(rows, domain.Slot{Record: owner(bot, user), Name: n, Type: domain.SlotText, AutoFill: true})
	}
	return repo.InsertBatch(ctx, s.DB, rows)
}

// GetIntents lists the active intents of a bot.
func (s *BotDataService) GetIntents(ctx context.Context, bot string) ([]NamedItem, error) {
	ctx, span := s.start(ctx, "GetIntents", bot)
	defer span.End()
	items, err := namedItems[domain.Intent](ctx, s, bot, func(r domain.Intent) NamedItem { return NamedItem{r.ID, r.Name} })
	if err != nil {
		return nil, fail(ctx, span, "GetIntents", err)
	}
	return items, nil
}

// GetEntities lists the active domain entities of a bot.
func (s *BotDataService) GetEntities(ctx context.Context, bot string) ([]NamedItem, error) {
	ctx, span := s.start(ctx, "GetEntities", bot)
	defer span.End()
	items, err := namedItems[domain.Entity](ctx, s, bot, func(r domain.Entity) NamedItem { return NamedItem{r.ID, r.Name} })
	if err != nil {
		return nil, fail(ctx, span, "GetEntities", err)
	}
	return items, nil
}

// GetActions lists the active actions of a bot.
func (s *BotDataService) GetActions(ctx context.Context, bot string) ([]NamedItem, error) {
	ctx, span := s.start(ctx, "GetActions", bot)
	defer span.End()
	items, err := namedItems[domain.Action](ctx, s, bot, func(r domain.Action) NamedItem { return NamedItem{r.ID, r.Name} })
	if err != nil {
		return nil, fail(ctx, span, "GetActions", err)
	}
	return items, nil
}

func namedItems[T any](ctx context.Context, s *BotDataService, bot string, item func(T) NamedItem) ([]NamedItem, error) {
	rows, err := repo.ListActive[T](ctx, s.DB, bot)
	if err != nil {
		return nil, err
	}
	out := make([]NamedItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, item(r))
	}
	return out, nil
}

// GetTrainingExamples lists the active examples of an intent with their
// entity markup re-inserted.
func (s *BotDataService) GetTrainingExamples(ctx context.Context, intent, bot string) ([]ExampleItem, error) {
	ctx, span := s.start(ctx, "GetTrainingExamples", bot)
	defer span.End()
	span.SetAttributes(attribute.String("intent", intent))

	rows, err := repo.ListActiveWhere[domain.TrainingExample](ctx, s.DB, bot, "intent", intent)
	if err != nil {
		return nil, fail(ctx, span, "GetTrainingExamples", err)
	}
	out := make([]ExampleItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExampleItem{ID: r.ID, Text: training.InsertEntityMarkup(r.Text, fromSpans(r.Entities))})
	}
	return out, nil
}

// SearchTrainingExamples ranks the bot's example texts, synonym values,
// lookup values and regex patterns against q.
func (s *BotDataService) SearchTrainingExamples(ctx context.Context, bot, q string, k int) ([]search.Result, error) {
	ctx, span := s.start(ctx, "SearchTrainingExamples", bot)
	defer span.End()

	if k <= 0 {
		k = s.SearchTopK
	}

	var docs []search.Doc
	examples, err := repo.ListActive[domain.TrainingExample](ctx, s.DB, bot)
	if err != nil {
		return nil, fail(ctx, span, "SearchTrainingExamples", err)
	}
	for _, r := range examples {
		docs = append(docs, search.Doc{ID: r.ID, Kind: string(domain.CollectionTrainingExamples), Text: r.Text})
	}
	synonyms, err := repo.ListActive[domain.EntitySynonym](ctx, s.DB, bot)
	if err != nil {
		return nil, fail(ctx, span, "SearchTrainingExamples", err)
	}
	for _, r := range synonyms {
		docs = append(docs, search.Doc{ID: r.ID, Kind: string(domain.CollectionEntitySynonyms), Text: r.Value})
	}
	lookups, err := repo.ListActive[domain.LookupTable](ctx, s.DB, bot)
	if err != nil {
		return nil, fail(ctx, span, "SearchTrainingExamples", err)
	}
	for _, r := range lookups {
		docs = append(docs, search.Doc{ID: r.ID, Kind: string(domain.CollectionLookupTables), Text: r.Value})
	}
	regexes, err := repo.ListActive[domain.RegexFeature](ctx, s.DB, bot)
	if err != nil {
		return nil, fail(ctx, span, "SearchTrainingExamples", err)
	}
	for _, r := range regexes {
		docs = append(docs, search.Doc{ID: r.ID, Kind: string(domain.CollectionRegexFeatures), Text: r.Pattern})
	}

	res := search.New(docs).TopK(q, k)
	span.SetAttributes(attribute.Int("search.hits", len(res)))
	return res, nil
}

// RemoveDocument soft-deletes the record id of collection. Removing an
// already removed record succeeds; an unknown id is ErrDocumentNotFound.
func (s *BotDataService) RemoveDocument(ctx context.Context, bot string, collection domain.Collection, id string) error {
	ctx, span := s.start(ctx, "RemoveDocument", bot)
	defer span.End()
	span.SetAttributes(attribute.String("collection", string(collection)), attribute.String("document.id", id))

	model, ok := collection.Model()
	if !ok {
		return fail(ctx, span, "RemoveDocument", ErrUnknownCollection)
	}
	err := repo.SoftDelete(ctx, s.DB, model, bot, id)
	if errors.Is(err, repo.ErrNotFound) {
		return fail(ctx, span, "RemoveDocument", ErrDocumentNotFound)
	}
	if err != nil {
		return fail(ctx, span, "RemoveDocument", err)
	}
	return nil
}
