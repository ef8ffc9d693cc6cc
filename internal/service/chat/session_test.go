package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/persona-probe/backend/internal/model/chat"
	"github.com/zhouzirui/persona-probe/backend/internal/model/persona"
)

func TestSendOnEndedConversationHandle(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, []chat.Turn) (string, error) {
		return "hi", nil
	})
	reg := NewRegistry(persona.NewMemoryStore(persona.Seed()), gen)
	ctx := context.Background()
	info, _ := reg.CreateSession(ctx, "")
	conv, _ := reg.Get(ctx, info.ID)

	if _, err := reg.EndSession(ctx, info.ID); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if _, err := conv.send(ctx, "late", false); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if got := conv.Summary().Messages; len(got) != 0 {
		t.Fatalf("ended conversation changed: %+v", got)
	}
}

func TestSendMessagePublishesEveryReply(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, []chat.Turn) (string, error) {
		return "hi", nil
	})
	events := NewBroadcaster()
	feed, cancel := events.Subscribe(8)
	defer cancel()
	reg := NewRegistry(persona.NewMemoryStore(nil), gen, WithEvents(events))
	ctx := context.Background()
	info, _ := reg.CreateSession(ctx, "")
	<-feed

	for i := 0; i < 2; i++ {
		if _, _, err := reg.SendMessage(ctx, info.ID, "hello", false); err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
		ev := <-feed
		if ev.Type != EventSessionMessage || ev.Summary == nil || ev.Summary.TotalTurns != i+1 {
			t.Fatalf("unexpected event after send %d: %+v", i+1, ev)
		}
	}
}
