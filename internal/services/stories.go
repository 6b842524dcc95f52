package services

import (
	"context"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/training"
)

// SaveStories stores each story step as one story record. Only the intent
// name of user events and the action name of action events are kept.
func (s *BotDataService) SaveStories(ctx context.Context, g training.StoryGraph, bot, user string) error {
	ctx, span := s.start(ctx, "SaveStories", bot)
	defer span.End()

	rows := make([]domain.Story, 0, len(g.Steps))
	for _, step := range g.Steps {
		row := domain.Story{Record: owner(bot, user), BlockName: step.BlockName}
		for _, ev := range step.Events {
			switch e := ev.(type) {
			case training.UserUttered:
				row.Events = append(row.Events, domain.StoryEvent{Type: domain.EventUser, Name: e.Intent.Name})
			case training.ActionExecuted:
				row.Events = append(row.Events, domain.StoryEvent{Type: domain.EventAction, Name: e.ActionName})
			}
		}
		rows = append(rows, row)
	}
	if err := validateAll(rows); err != nil {
		return fail(ctx, span, "SaveStories", err)
	}
	if err := repo.InsertBatch(ctx, s.DB, rows); err != nil {
		return fail(ctx, span, "SaveStories", err)
	}
	return nil
}

// LoadStories rebuilds the story graph of a bot. Every event gets the same
// fresh timestamp and every step starts from StoryStart.
func (s *BotDataService) LoadStories(ctx context.Context, bot string) (training.StoryGraph, error) {
	ctx, span := s.start(ctx, "LoadStories", bot)
	defer span.End()

	rows, err := repo.ListActive[domain.Story](ctx, s.DB, bot)
	if err != nil {
		return training.StoryGraph{}, fail(ctx, span, "LoadStories", err)
	}
	at := s.now()
	g := training.StoryGraph{Steps: make([]training.StoryStep, 0, len(rows))}
	for _, row := range rows {
		step := training.StoryStep{
			BlockName:        row.BlockName,
			Events:           make([]training.Event, 0, len(row.Events)),
			StartCheckpoints: []string{training.StoryStart},
		}
		for _, ev := range row.Events {
			switch ev.Type {
			case domain.EventUser:
				step.Events = append(step.Events, training.NewUserUttered(ev.Name, at))
			case domain.EventAction:
				step.Events = append(step.Events, training.NewActionExecuted(ev.Name, at))
			}
		}
		g.Steps = append(g.Steps, step)
	}
	return g, nil
}
