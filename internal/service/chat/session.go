package chat

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/zhouzirui/persona-probe/backend/internal/model/chat"
	"github.com/zhouzirui/persona-probe/backend/internal/model/persona"
	"github.com/zhouzirui/persona-probe/backend/internal/observability"
)

// Generator continues a transcript. The last turn is always the pending user turn.
type Generator interface {
	Generate(ctx context.Context, transcript []chat.Turn) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, transcript []chat.Turn) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, transcript []chat.Turn) (string, error) {
	return f(ctx, transcript)
}

// Conversation owns one transcript and its role-check history.
type Conversation struct {
	id        string
	persona   *persona.Persona
	generator Generator
	metrics   *observability.Metrics

	// slot holds at most one in-flight send (or the final end) per conversation.
	slot chan struct{}

	mu         sync.RWMutex
	transcript []chat.Turn
	roleChecks []chat.RoleCheck
	ended      bool
}

func newConversation(id string, p *persona.Persona, generator Generator, metrics *observability.Metrics) *Conversation {
	return &Conversation{
		id:         id,
		persona:    p,
		generator:  generator,
		metrics:    metrics,
		slot:       make(chan struct{}, 1),
		transcript: make([]chat.Turn, 0, 16),
		roleChecks: make([]chat.RoleCheck, 0),
	}
}

// ID returns the session identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Persona returns a copy of the bound persona, or nil.
func (c *Conversation) Persona() *persona.Persona {
	return clonePersona(c.persona)
}

// send records the user text, asks the generator for a reply and records it.
// When isRoleCheck is set the reply is also stored as a role check for the pair just completed.
// Callers go through Registry.SendMessage so every send is published as an event.
func (c *Conversation) send(ctx context.Context, text string, isRoleCheck bool) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.release()

	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return "", ErrSessionNotFound
	}
	c.transcript = append(c.transcript, chat.UserTurn(text))
	history := slices.Clone(c.transcript)
	c.mu.Unlock()

	start := time.Now()
	reply, err := c.generate(ctx, history)
	elapsed := time.Since(start)
	c.metrics.ObserveGeneration(elapsed, err, isRoleCheck)
	if err != nil {
		log.Printf("[chat] generation failed for session=%s after %s: %v", c.id, elapsed.Round(time.Millisecond), err)
		return "", &GenerationError{SessionID: c.id, Err: err}
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, chat.AssistantTurn(reply))
	if isRoleCheck {
		c.roleChecks = append(c.roleChecks, chat.RoleCheck{
			Turn:     len(c.transcript) / 2,
			Response: reply,
		})
	}
	turns := len(c.transcript) / 2
	c.mu.Unlock()

	log.Printf("[chat] session=%s turn=%d role_check=%t reply_length=%d", c.id, turns, isRoleCheck, len(reply))
	return reply, nil
}

func (c *Conversation) generate(ctx context.Context, history []chat.Turn) (reply string, err error) {
	if c.generator == nil {
		return "", ErrGeneratorUnavailable
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()

	return c.generator.Generate(ctx, history)
}

// Summary returns a snapshot of the conversation.
func (c *Conversation) Summary() chat.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summaryLocked()
}

func (c *Conversation) summaryLocked() chat.Summary {
	pending := len(c.transcript) > 0 && c.transcript[len(c.transcript)-1].Role == chat.RoleUser
	return chat.Summary{
		SessionID:     c.id,
		Persona:       clonePersona(c.persona),
		TotalTurns:    len(c.transcript) / 2,
		RoleResponses: slices.Clone(c.roleChecks),
		Messages:      slices.Clone(c.transcript),
		Pending:       pending,
	}
}

// end waits for any in-flight send, marks the conversation as ended and returns its final summary.
func (c *Conversation) end(ctx context.Context, finalize func() bool) (chat.Summary, error) {
	if err := c.acquire(ctx); err != nil {
		return chat.Summary{}, err
	}
	defer c.release()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended || !finalize() {
		return chat.Summary{}, ErrSessionNotFound
	}
	c.ended = true
	return c.summaryLocked(), nil
}

func (c *Conversation) acquire(ctx context.Context) error {
	select {
	case c.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conversation) release() {
	<-c.slot
}

func clonePersona(p *persona.Persona) *persona.Persona {
	if p == nil {
		return nil
	}
	copied := p.Clone()
	return &copied
}
