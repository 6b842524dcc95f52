package services

import (
	"context"
	"sort"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/training"
)

// SaveNLU decomposes td into training example, synonym, lookup table and
// regex feature records and bulk-inserts each non-empty collection.
func (s *BotDataService) SaveNLU(ctx context.Context, td training.TrainingData, bot, user string) error {
	ctx, span := s.start(ctx, "SaveNLU", bot)
	defer span.End()

	examples := make([]domain.TrainingExample, 0, len(td.Examples))
	for _, ex := range td.Examples {
		examples = append(examples, domain.TrainingExample{
			Record:   owner(bot, user),
			Intent:   ex.Intent,
			Text:     ex.Text,
			Entities: toSpans(ex.Entities),
		})
	}

	surfaces := make([]string, 0, len(td.Synonyms))
	for k := range td.Synonyms {
		surfaces = append(surfaces, k)
	}
	sort.Strings(surfaces)
	synonyms := make([]domain.EntitySynonym, 0, len(surfaces))
	for _, k := range surfaces {
		synonyms = append(synonyms, domain.EntitySynonym{Record: owner(bot, user), Synonym: k, Value: td.Synonyms[k]})
	}

	var lookups []domain.LookupTable
	for _, lt := range td.LookupTables {
		for _, el := range lt.Elements {
			lookups = append(lookups, domain.LookupTable{Record: owner(bot, user), Name: lt.Name, Value: el})
		}
	}

	regexes := make([]domain.RegexFeature, 0, len(td.RegexFeatures))
	for _, rf := range td.RegexFeatures {
		regexes = append(regexes, domain.RegexFeature{Record: owner(bot, user), Name: rf.Name, Pattern: rf.Pattern})
	}

	// Nothing is written unless every collection validates.
	if err := firstErr(
		validateAll(examples),
		validateAll(synonyms),
		validateAll(lookups),
		validateAll(regexes),
	); err != nil {
		return fail(ctx, span, "SaveNLU", err)
	}

	for _, write := range []func() error{
		func() error { return repo.InsertBatch(ctx, s.DB, examples) },
		func() error { return repo.InsertBatch(ctx, s.DB, synonyms) },
		func() error { return repo.InsertBatch(ctx, s.DB, lookups) },
		func() error { return repo.InsertBatch(ctx, s.DB, regexes) },
	} {
		if err := write(); err != nil {
			return fail(ctx, span, "SaveNLU", err)
		}
	}
	return nil
}

// LoadNLU reassembles the active training data of a bot. Synonym rows are
// regrouped into one map and lookup rows into one table per name, in first
// appearance order.
func (s *BotDataService) LoadNLU(ctx context.Context, bot string) (training.TrainingData, error) {
	ctx, span := s.start(ctx, "LoadNLU", bot)
	defer span.End()

	examples, err := repo.ListActive[domain.TrainingExample](ctx, s.DB, bot)
	if err != nil {
		return training.TrainingData{}, fail(ctx, span, "LoadNLU", err)
	}
	synonyms, err := repo.ListActive[domain.EntitySynonym](ctx, s.DB, bot)
	if err != nil {
		return training.TrainingData{}, fail(ctx, span, "LoadNLU", err)
	}
	lookups, err := repo.ListActive[domain.LookupTable](ctx, s.DB, bot)
	if err != nil {
		return training.TrainingData{}, fail(ctx, span, "LoadNLU", err)
	}
	regexes, err := repo.ListActive[domain.RegexFeature](ctx, s.DB, bot)
	if err != nil {
		return training.TrainingData{}, fail(ctx, span, "LoadNLU", err)
	}

	td := training.TrainingData{
		Examples:      make([]training.Example, 0, len(examples)),
		Synonyms:      make(map[string]string, len(synonyms)),
		LookupTables:  []training.LookupTable{},
		RegexFeatures: make([]training.RegexFeature, 0, len(regexes)),
	}
	for _, ex := range examples {
		td.Examples = append(td.Examples, training.Example{
			Text:     ex.Text,
			Intent:   ex.Intent,
			Entities: fromSpans(ex.Entities),
		})
	}
	for _, syn := range synonyms {
		td.Synonyms[syn.Synonym] = syn.Value
	}
	byName := map[string]int{}
	for _, lt := range lookups {
		i, ok := byName[lt.Name]
		if !ok {
			i = len(td.LookupTables)
			byName[lt.Name] = i
			td.LookupTables = append(td.LookupTables, training.LookupTable{Name: lt.Name})
		}
		td.LookupTables[i].Elements = append(td.LookupTables[i].Elements, lt.Value)
	}
	for _, rf := range regexes {
		td.RegexFeatures = append(td.RegexFeatures, training.RegexFeature{Name: rf.Name, Pattern: rf.Pattern})
	}
	return td, nil
}

func toSpans(in []training.Entity) []domain.EntitySpan {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.EntitySpan, len(in))
	for i, e := range in {
		out[i] = domain.EntitySpan{Start: e.Start, End: e.End, Value: e.Value, Entity: e.Entity}
	}
	return out
}

func fromSpans(in []domain.EntitySpan) []training.Entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]training.Entity, len(in))
	for i, e := range in {
		out[i] = training.Entity{Start: e.Start, End: e.End, Value: e.Value, Entity: e.Entity}
	}
	return out
}
