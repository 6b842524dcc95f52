package docs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/swaggo/swag"
)

func TestDocRendersValidJSON(t *testing.T) {
	orig := SwaggerInfo.BasePath
	t.Cleanup(func() { SwaggerInfo.BasePath = orig })
	SwaggerInfo.BasePath = "/api/v2"

	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	for _, p := range []string{
		"/api/v2/bots/{bot}/intents",
		"/api/v2/bots/{bot}/training-data",
		"/channels/whatsapp/{bot}",
	} {
		if _, ok := doc.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
	for p := range doc.Paths {
		if strings.Contains(p, "{{") {
			t.Fatalf("unrendered path %s", p)
		}
	}
}
