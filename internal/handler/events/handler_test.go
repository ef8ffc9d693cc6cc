package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatmodel "github.com/zhouzirui/persona-probe/backend/internal/model/chat"
	"github.com/zhouzirui/persona-probe/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/persona-probe/backend/internal/service/chat"
)

type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestEventFeedSendsSnapshotThenEvents(t *testing.T) {
	broadcaster := chatservice.NewBroadcaster()
	gen := chatservice.GeneratorFunc(func(context.Context, []chatmodel.Turn) (string, error) {
		return "sure", nil
	})
	registry := chatservice.NewRegistry(persona.NewMemoryStore(persona.Seed()), gen, chatservice.WithEvents(broadcaster))
	ctx := context.Background()
	existing, _ := registry.CreateSession(ctx, "curious_student")

	r := chi.NewRouter()
	New(registry, broadcaster).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snapshot := readFrame(t, conn)
	if snapshot.Type != "snapshot" {
		t.Fatalf("expected snapshot first, got %s", snapshot.Type)
	}
	var summaries map[string]chatmodel.Summary
	if err := json.Unmarshal(snapshot.Data, &summaries); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if _, ok := summaries[existing.ID]; !ok || len(summaries) != 1 {
		t.Fatalf("snapshot missing %s: %v", existing.ID, summaries)
	}

	created, _ := registry.CreateSession(ctx, "")
	if f := readFrame(t, conn); f.Type != string(chatservice.EventSessionCreated) || f.SessionID != created.ID {
		t.Fatalf("expected created event for %s, got %+v", created.ID, f)
	}

	if _, _, err := registry.SendMessage(ctx, created.ID, "hello", false); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	msg := readFrame(t, conn)
	if msg.Type != string(chatservice.EventSessionMessage) {
		t.Fatalf("expected message event, got %+v", msg)
	}
	var summary chatmodel.Summary
	if err := json.Unmarshal(msg.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalTurns != 1 {
		t.Fatalf("expected 1 turn in event summary, got %d", summary.TotalTurns)
	}

	if _, err := registry.EndSession(ctx, created.ID); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if f := readFrame(t, conn); f.Type != string(chatservice.EventSessionEnded) || f.SessionID != created.ID {
		t.Fatalf("expected ended event for %s, got %+v", created.ID, f)
	}
}

func TestEventFeedUnsubscribesOnClose(t *testing.T) {
	broadcaster := chatservice.NewBroadcaster()
	registry := chatservice.NewRegistry(persona.NewMemoryStore(nil), nil, chatservice.WithEvents(broadcaster))

	r := chi.NewRouter()
	New(registry, broadcaster).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readFrame(t, conn)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for broadcaster.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not released, still %d", broadcaster.Subscribers())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
