package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestIdempotency_Migration_UniqueIndex_AndInsert(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_bot_key") {
		t.Fatalf("expected composite index ux_user_bot_key to exist")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:         "id-1",
		UserID:     "u1",
		Bot:        "b1",
		Key:        "k1",
		Collection: string(CollectionIntents),
		ResourceID: "r1",
		Status:     201,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Bot != "b1" || got.ResourceID != "r1" || got.Collection != "intents" || got.Status != 201 {
		t.Fatalf("unexpected row: %+v", got)
	}

	dup := *rec
	dup.ID = "id-2"
	dup.ResourceID = "r2"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (user_id, bot, key)")
	}

	// Same key under another bot is a different scope.
	other := *rec
	other.ID = "id-3"
	other.Bot = "b2"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("insert other bot: %v", err)
	}
}

func TestDeliveryReceipt_UniquePerBotChannelMessage(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&DeliveryReceipt{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()
	r := &DeliveryReceipt{ID: "1", Bot: "b", Channel: "whatsapp", MessageID: "wamid.1", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	again := &DeliveryReceipt{ID: "2", Bot: "b", Channel: "whatsapp", MessageID: "wamid.1", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(again).Error; err == nil {
		t.Fatalf("expected unique violation for repeated message id")
	}
}

func TestChannelConfig_Credential(t *testing.T) {
	meta := ChannelConfig{Provider: ProviderMeta, AccessToken: "tok", APIKey: "key"}
	if got := meta.Credential(); got != "tok" {
		t.Fatalf("meta credential = %q; want tok", got)
	}
	d360 := ChannelConfig{Provider: Provider360Dialog, AccessToken: "tok", APIKey: "key"}
	if got := d360.Credential(); got != "key" {
		t.Fatalf("360dialog credential = %q; want key", got)
	}
	unset := ChannelConfig{AccessToken: "tok"}
	if got := unset.Credential(); got != "tok" {
		t.Fatalf("default provider credential = %q; want tok", got)
	}
}
