package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
)

// Export groups: the collections each export endpoint is built from.
var (
	TrainingDataCollections = []domain.Collection{
		domain.CollectionTrainingExamples,
		domain.CollectionEntitySynonyms,
		domain.CollectionLookupTables,
		domain.CollectionRegexFeatures,
	}
	DomainCollections = []domain.Collection{
		domain.CollectionIntents,
		domain.CollectionEntities,
		domain.CollectionForms,
		domain.CollectionActions,
		domain.CollectionResponses,
		domain.CollectionSlots,
		domain.CollectionSessionConfigs,
	}
	StoryCollections  = []domain.Collection{domain.CollectionStories}
	ConfigCollections = []domain.Collection{domain.CollectionConfigs}
)

// Version summarizes the active rows of the given collections as
// "<count>.<newest unix nano>" per collection. Any add or remove changes it.
func (s *BotDataService) Version(ctx context.Context, bot string, collections ...domain.Collection) (string, error) {
	ctx, span := s.start(ctx, "Version", bot)
	defer span.End()
	span.SetAttributes(attribute.Int("collections", len(collections)))

	parts := make([]string, 0, len(collections))
	for _, c := range collections {
		model, ok := c.Model()
		if !ok {
			return "", fail(ctx, span, "Version", ErrUnknownCollection)
		}
		count, latest, err := repo.CollectionStats(ctx, s.DB, model, bot)
		if err != nil {
			return "", fail(ctx, span, "Version", err)
		}
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		parts = append(parts, fmt.Sprintf("%d.%d", count, ts))
	}
	return strings.Join(parts, "-"), nil
}
