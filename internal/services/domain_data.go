package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"gorm.io/datatypes"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/training"
)

// SaveDomain persists intents, entities, forms, actions, responses, slots
// and the session config of d. Names that already exist as active records
// are skipped. A second active session config for the bot is
// ErrSessionConfigExists and nothing is written.
func (s *BotDataService) SaveDomain(ctx context.Context, d training.Domain, bot, user string) error {
	ctx, span := s.start(ctx, "SaveDomain", bot)
	defer span.End()

	rows, err := s.domainRows(ctx, d, bot, user)
	if err != nil {
		return fail(ctx, span, "SaveDomain", err)
	}
	if err := rows.validate(); err != nil {
		return fail(ctx, span, "SaveDomain", err)
	}
	if rows.session != nil {
		if err := singleActive[domain.SessionConfig](ctx, s, bot, ErrSessionConfigExists); err != nil {
			return fail(ctx, span, "SaveDomain", err)
		}
	}

	for _, write := range []func() error{
		func() error { return repo.InsertBatch(ctx, s.DB, rows.intents) },
		func() error { return repo.InsertBatch(ctx, s.DB, rows.entities) },
		func() error { return repo.InsertBatch(ctx, s.DB, rows.forms) },
		func() error { return repo.InsertBatch(ctx, s.DB, rows.actions) },
		func() error { return repo.InsertBatch(ctx, s.DB, rows.responses) },
		func() error { return repo.InsertBatch(ctx, s.DB, rows.slots) },
	} {
		if err := write(); err != nil {
			return fail(ctx, span, "SaveDomain", err)
		}
	}

	if rows.session != nil {
		if err := repo.Insert(ctx, s.DB, rows.session); err != nil {
			return fail(ctx, span, "SaveDomain", err)
		}
	}
	return nil
}

type domainRows struct {
	intents   []domain.Intent
	entities  []domain.Entity
	forms     []domain.Form
	actions   []domain.Action
	responses []domain.Response
	slots     []domain.Slot
	session   *domain.SessionConfig
}

func (r *domainRows) validate() error {
	return firstErr(
		validateAll(r.intents),
		validateAll(r.entities),
		validateAll(r.forms),
		validateAll(r.actions),
		validateAll(r.responses),
		validateAll(r.slots),
		r.validateSession(),
	)
}

func (r *domainRows) validateSession() error {
	if r.session == nil {
		return nil
	}
	return r.session.Validate()
}

func (s *BotDataService) domainRows(ctx context.Context, d training.Domain, bot, user string) (*domainRows, error) {
	var out domainRows

	names, err := s.newNames(ctx, &domain.Intent{}, bot, d.Intents)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		out.intents = append(out.intents, domain.Intent{Record: owner(bot, user), Name: n})
	}
	if names, err = s.newNames(ctx, &domain.Entity{}, bot, d.Entities); err != nil {
		return nil, err
	}
	for _, n := range names {
		out.entities = append(out.entities, domain.Entity{Record: owner(bot, user), Name: n})
	}
	if names, err = s.newNames(ctx, &domain.Form{}, bot, d.Forms); err != nil {
		return nil, err
	}
	for _, n := range names {
		out.forms = append(out.forms, domain.Form{Record: owner(bot, user), Name: n})
	}
	if names, err = s.newNames(ctx, &domain.Action{}, bot, d.Actions); err != nil {
		return nil, err
	}
	for _, n := range names {
		out.actions = append(out.actions, domain.Action{Record: owner(bot, user), Name: n})
	}

	responseNames := make([]string, 0, len(d.Responses))
	for n := range d.Responses {
		responseNames = append(responseNames, n)
	}
	sort.Strings(responseNames)
	for _, n := range responseNames {
		for _, v := range d.Responses[n] {
			out.responses = append(out.responses, toResponseRow(v, n, bot, user))
		}
	}

	slotNames, err := repo.ActiveNames(ctx, s.DB, &domain.Slot{}, bot)
	if err != nil {
		return nil, err
	}
	for _, sl := range d.Slots {
		spec := training.Spec(sl)
		if _, dup := slotNames[spec.Name]; dup {
			continue
		}
		slotNames[spec.Name] = struct{}{}
		out.slots = append(out.slots, toSlotRow(spec, bot, user))
	}

	if d.Session != nil {
		out.session = &domain.SessionConfig{
			Bot:                   bot,
			User:                  user,
			SessionExpirationTime: d.Session.SessionExpirationTime,
			CarryOverSlots:        d.Session.CarryOverSlots,
		}
	}
	return &out, nil
}

func toResponseRow(v training.Response, name, bot, user string) domain.Response {
	row := domain.Response{Record: owner(bot, user), Name: name}
	if v.Text != nil {
		buttons := make([]domain.ResponseButton, 0, len(v.Text.Buttons))
		for _, b := range v.Text.Buttons {
			buttons = append(buttons, domain.ResponseButton{Title: b.Title, Payload: b.Payload})
		}
		row.Text = &domain.ResponseText{Text: v.Text.Text, Image: v.Text.Image, Channel: v.Text.Channel, Buttons: buttons}
	}
	if len(v.Custom) > 0 {
		row.Custom = datatypes.JSON(v.Custom)
	}
	return row
}

func toSlotRow(spec training.SlotSpec, bot, user string) domain.Slot {
	return domain.Slot{
		Record:          owner(bot, user),
		Name:            spec.Name,
		Type:            domain.SlotType(spec.Kind),
		InitialValue:    datatypes.JSON(spec.InitialValue),
		ValueResetDelay: spec.ValueResetDelay,
		AutoFill:        spec.AutoFill,
		Values:          spec.Values,
		MinValue:        spec.MinValue,
		MaxValue:        spec.MaxValue,
	}
}

// LoadDomain reassembles the active domain of a bot. Responses are grouped
// by name with text and custom variants in one list; slots are rebuilt into
// their typed variants. Without a stored session config the defaults apply.
func (s *BotDataService) LoadDomain(ctx context.Context, bot string) (training.Domain, error) {
	ctx, span := s.start(ctx, "LoadDomain", bot)
	defer span.End()

	var (
		d   = training.Domain{Responses: map[string][]training.Response{}}
		err error
	)
	if d.Intents, err = activeNames[domain.Intent](ctx, s, bot, func(r domain.Intent) string { return r.Name }); err != nil {
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}
	if d.Entities, err = activeNames[domain.Entity](ctx, s, bot, func(r domain.Entity) string { return r.Name }); err != nil {
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}
	if d.Forms, err = activeNames[domain.Form](ctx, s, bot, func(r domain.Form) string { return r.Name }); err != nil {
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}
	if d.Actions, err = activeNames[domain.Action](ctx, s, bot, func(r domain.Action) string { return r.Name }); err != nil {
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}

	responses, err := repo.ListActive[domain.Response](ctx, s.DB, bot)
	if err != nil {
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}
	for _, r := range responses {
		d.Responses[r.Name] = append(d.Responses[r.Name], fromResponseRow(r))
	}

	slots, err := repo.ListActive[domain.Slot](ctx, s.DB, bot)
	if err != nil {
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}
	for _, row := range slots {
		sl, err := training.NewSlot(fromSlotRow(row))
		if err != nil {
			return training.Domain{}, fail(ctx, span, "LoadDomain", err)
		}
		d.Slots = append(d.Slots, sl)
	}

	d.Session = &training.SessionConfig{
		SessionExpirationTime: domain.DefaultSessionExpirationTime,
		CarryOverSlots:        domain.DefaultCarryOverSlots,
	}
	sc, err := repo.FirstActive[domain.SessionConfig](ctx, s.DB, bot)
	switch {
	case err == nil:
		d.Session.SessionExpirationTime = sc.SessionExpirationTime
		d.Session.CarryOverSlots = sc.CarryOverSlots
	case !errors.Is(err, repo.ErrNotFound):
		return training.Domain{}, fail(ctx, span, "LoadDomain", err)
	}
	return d, nil
}

func activeNames[T any](ctx context.Context, s *BotDataService, bot string, name func(T) string) ([]string, error) {
	rows, err := repo.ListActive[T](ctx, s.DB, bot)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, name(r))
	}
	return out, nil
}

func fromResponseRow(r domain.Response) training.Response {
	if r.HasCustom() {
		return training.Response{Custom: json.RawMessage(r.Custom)}
	}
	if r.Text == nil {
		return training.Response{}
	}
	buttons := make([]training.Button, 0, len(r.Text.Buttons))
	for _, b := range r.Text.Buttons {
		buttons = append(buttons, training.Button{Title: b.Title, Payload: b.Payload})
	}
	return training.Response{Text: &training.ResponseText{
		Text:    r.Text.Text,
		Image:   r.Text.Image,
		Channel: r.Text.Channel,
		Buttons: buttons,
	}}
}

func fromSlotRow(row domain.Slot) training.SlotSpec {
	spec := training.SlotSpec{
		Name:            row.Name,
		Kind:            training.SlotKind(row.Type),
		ValueResetDelay: row.ValueResetDelay,
		AutoFill:        row.AutoFill,
		Values:          row.Values,
		MinValue:        row.MinValue,
		MaxValue:        row.MaxValue,
	}
	if len(row.InitialValue) > 0 && string(row.InitialValue) != "null" {
		spec.InitialValue = json.RawMessage(row.InitialValue)
	}
	return spec
}
