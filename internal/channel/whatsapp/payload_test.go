package whatsapp

import (
	"encoding/json"
	"testing"

	"github.com/tbourn/go-bot-backend/internal/channel"
)

func decode(t *testing.T, raw string) Message {
	t.Helper()
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func TestNormalize_Shapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"text", `{"from":"4915","id":"w1","type":"text","text":{"body":"hello"}}`, "hello"},
		{"button", `{"from":"4915","id":"w2","type":"button","button":{"text":"Yes","payload":"yes"}}`, "Yes"},
		{"button reply", `{"from":"4915","id":"w3","type":"interactive","interactive":{"type":"button_reply","button_reply":{"id":"/affirm","title":"Yes"}}}`, "/affirm"},
		{"list reply", `{"from":"4915","id":"w4","type":"interactive","interactive":{"type":"list_reply","list_reply":{"id":"/pick_2","title":"Two"}}}`, "/pick_2"},
		{"image", `{"from":"4915","id":"w5","type":"image","image":{"id":"img1","mime_type":"image/jpeg"}}`, `/k_multimedia_msg{"image":"img1"}`},
		{"voice", `{"from":"4915","id":"w6","type":"voice","voice":{"id":"abc"}}`, `/k_multimedia_msg{"audio":"abc"}`},
		{"document", `{"from":"4915","id":"w7","type":"document","document":{"id":"doc1"}}`, `/k_multimedia_msg{"document":"doc1"}`},
	}
	for _, tc := range cases {
		msg, ok := Normalize(decode(t, tc.raw), nil)
		if !ok {
			t.Fatalf("%s: not normalized", tc.name)
		}
		if msg.Text != tc.want || msg.SenderID != "4915" {
			t.Fatalf("%s: got %q from %q, want %q", tc.name, msg.Text, msg.SenderID, tc.want)
		}
	}
}

func TestNormalize_InteractiveBeforeText(t *testing.T) {
	// A reply that also carries a text-shaped field is still a reply.
	raw := `{"from":"1","id":"w1","type":"interactive","text":{"body":"ignored"},"interactive":{"type":"button_reply","button_reply":{"id":"/yes"}}}`
	msg, ok := Normalize(decode(t, raw), nil)
	if !ok || msg.Text != "/yes" {
		t.Fatalf("got %q ok=%v", msg.Text, ok)
	}
}

func TestNormalize_Skips(t *testing.T) {
	for _, raw := range []string{
		`{"from":"1","id":"w1","type":"unknown_kind"}`,
		`{"from":"1","id":"w2","type":"location","location":{"latitude":1}}`,
		`{"from":"1","id":"w3","type":"text"}`,
		`{"from":"1","id":"w4","type":"interactive","interactive":{}}`,
		`{"from":"1","id":"w5","type":"audio"}`,
	} {
		if msg, ok := Normalize(decode(t, raw), nil); ok {
			t.Fatalf("%s normalized to %#v", raw, msg)
		}
	}
}

func TestNormalize_Metadata(t *testing.T) {
	raw := `{"from":"4915","id":"wamid.9","timestamp":"1700000000","type":"voice","voice":{"id":"v1"}}`
	meta := channel.Metadata{channel.MetaBot: "b1", channel.MetaTabName: "default"}
	msg, ok := Normalize(decode(t, raw), meta)
	if !ok {
		t.Fatalf("not normalized")
	}
	md := msg.Metadata
	if md.String(channel.MetaMessageID) != "wamid.9" || md.String(channel.MetaSender) != "4915" ||
		md.String("type") != "audio" || md.String(channel.MetaBot) != "b1" || md.String("timestamp") != "1700000000" {
		t.Fatalf("metadata = %#v", md)
	}
	if len(meta) != 2 {
		t.Fatalf("input metadata mutated: %#v", meta)
	}
}
