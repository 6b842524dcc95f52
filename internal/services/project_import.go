package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-bot-backend/internal/training"
)

// ImportProject reads a project directory (data/nlu.md, data/stories.md,
// domain.yml, config.yml) and saves its training data, domain, stories and
// config for bot. A malformed domain file is reported as ErrInvalidInput;
// other errors keep their message.
func (s *BotDataService) ImportProject(ctx context.Context, root, bot, user string) error {
	ctx, span := s.start(ctx, "ImportProject", bot)
	defer span.End()

	p, err := training.LoadProject(root, s.now())
	if err != nil {
		var ide *training.InvalidDomainError
		if errors.As(err, &ide) {
			zerolog.Ctx(ctx).Info().Err(err).Str("path", root).Msg("invalid domain file")
			return fail(ctx, span, "ImportProject", fmt.Errorf("%w: %s", ErrInvalidInput, ide.Reason))
		}
		span.RecordError(err)
		return err
	}

	if err := s.SaveNLU(ctx, p.NLU, bot, user); err != nil {
		return err
	}
	if err := s.SaveDomain(ctx, p.Domain, bot, user); err != nil {
		return err
	}
	if err := s.SaveStories(ctx, p.Stories, bot, user); err != nil {
		return err
	}
	return s.SaveConfig(ctx, p.Config, bot, user)
}
