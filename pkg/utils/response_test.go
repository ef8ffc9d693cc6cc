package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSONEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var payload struct {
		PersonaID string `json:"persona_id"`
	}
	if err := DecodeJSON(req, &payload); err != nil {
		t.Fatalf("expected empty body to decode, got %v", err)
	}
	if payload.PersonaID != "" {
		t.Fatalf("unexpected persona id %q", payload.PersonaID)
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var payload map[string]any
	if err := DecodeJSON(req, &payload); err == nil {
		t.Fatal("expected malformed body to fail")
	}
}

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusNotFound, "Not found")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if strings.TrimSpace(resp.Body.String()) != `{"error":"Not found"}` {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}
