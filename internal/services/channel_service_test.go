package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
)

type fakeChannelRepo struct {
	saved  *domain.ChannelConfig
	getErr error
}

func (f *fakeChannelRepo) UpsertChannelConfig(_ context.Context, _ *gorm.DB, cfg *domain.ChannelConfig) error {
	f.saved = cfg
	return nil
}

func (f *fakeChannelRepo) GetChannelConfig(_ context.Context, _ *gorm.DB, bot, channel string) (*domain.ChannelConfig, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.saved == nil || f.saved.Bot != bot || f.saved.Channel != channel {
		return nil, repo.ErrNotFound
	}
	return f.saved, nil
}

func TestChannelService_PutGet(t *testing.T) {
	r := &fakeChannelRepo{}
	svc := NewChannelService(nil, r)
	ctx := context.Background()

	cfg := &domain.ChannelConfig{
		Bot: "b1", User: "u1", Channel: "whatsapp", Provider: " META ",
		VerifyToken: "vt", AppSecret: "s", AccessToken: "tok",
	}
	if err := svc.Put(ctx, cfg); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if r.saved.Provider != domain.ProviderMeta {
		t.Fatalf("provider not normalized: %q", r.saved.Provider)
	}
	got, err := svc.Get(ctx, "b1", "whatsapp")
	if err != nil || got.AccessToken != "tok" {
		t.Fatalf("Get: %v %#v", err, got)
	}
	if _, err := svc.Get(ctx, "b2", "whatsapp"); !errors.Is(err, ErrChannelNotConfigured) {
		t.Fatalf("expected ErrChannelNotConfigured, got %v", err)
	}
}

func TestChannelService_PutInvalid(t *testing.T) {
	svc := NewChannelService(nil, &fakeChannelRepo{})
	cases := []*domain.ChannelConfig{
		{Bot: "b1", User: "u1", Channel: "whatsapp", Provider: "meta", VerifyToken: "vt"},
		{Bot: "b1", User: "u1", Channel: "whatsapp", Provider: "360dialog", VerifyToken: "vt", AccessToken: "tok"},
		{Bot: "b1", User: "u1", Channel: "whatsapp", Provider: "twilio", VerifyToken: "vt", APIKey: "k"},
		{Bot: "b1", User: "u1", Channel: "whatsapp", Provider: "meta", AccessToken: "tok"},
	}
	for i, cfg := range cases {
		var ve *domain.ValidationError
		if err := svc.Put(context.Background(), cfg); !errors.As(err, &ve) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestChannelService_StorageFailure(t *testing.T) {
	svc := NewChannelService(nil, &fakeChannelRepo{getErr: errors.New("disk on fire")})
	if _, err := svc.Get(context.Background(), "b1", "whatsapp"); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestChannelService_GormRepo(t *testing.T) {
	svc := NewChannelService(newTestDB(t), nil)
	ctx := context.Background()

	cfg := &domain.ChannelConfig{
		Bot: "b1", User: "u1", Channel: "whatsapp", Provider: "360dialog",
		VerifyToken: "vt", APIKey: "key-1",
	}
	if err := svc.Put(ctx, cfg); err != nil {
		t.Fatalf("Put: %v", err)
	}
	cfg2 := *cfg
	cfg2.ID = ""
	cfg2.APIKey = "key-2"
	if err := svc.Put(ctx, &cfg2); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, err := svc.Get(ctx, "b1", "whatsapp")
	if err != nil || got.APIKey != "key-2" || got.Credential() != "key-2" {
		t.Fatalf("Get: %v %#v", err, got)
	}
}
