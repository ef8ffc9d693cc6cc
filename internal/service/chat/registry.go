package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zhouzirui/persona-probe/backend/internal/model/chat"
	"github.com/zhouzirui/persona-probe/backend/internal/model/persona"
	"github.com/zhouzirui/persona-probe/backend/internal/observability"
)

const (
	defaultIDLength = 8
	maxIDAttempts   = 16
)

// Registry maps session identifiers to live conversations.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Conversation
	// issued remembers every id handed out so ended ids are never reused.
	issued map[string]struct{}

	personas  persona.Store
	generator Generator
	metrics   *observability.Metrics
	events    *Broadcaster
	newID     func() string
}

// Option customises a Registry.
type Option func(*Registry)

// WithMetrics records session and generation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithEvents publishes lifecycle events to b.
func WithEvents(b *Broadcaster) Option {
	return func(r *Registry) { r.events = b }
}

// WithIDLength sets how many hex characters of a random UUID form a session id (8..32).
func WithIDLength(n int) Option {
	return func(r *Registry) { r.newID = randomID(n) }
}

// WithIDSource replaces the session id generator.
func WithIDSource(next func() string) Option {
	return func(r *Registry) { r.newID = next }
}

// NewRegistry bootstraps an empty in-memory registry. generator may be nil, in which case
// every send fails with ErrGeneratorUnavailable.
func NewRegistry(personas persona.Store, generator Generator, opts ...Option) *Registry {
	r := &Registry{
		sessions:  make(map[string]*Conversation),
		issued:    make(map[string]struct{}),
		personas:  personas,
		generator: generator,
		newID:     randomID(defaultIDLength),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func randomID(length int) func() string {
	if length < defaultIDLength {
		length = defaultIDLength
	}
	if length > 32 {
		length = 32
	}
	return func() string {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:length]
	}
}

// CreateSession provisions a session, binding the persona when personaID names a known one.
func (r *Registry) CreateSession(_ context.Context, personaID string) (chat.SessionInfo, error) {
	var bound *persona.Persona
	if r.personas != nil {
		if p, ok := r.personas.FindByID(personaID); ok {
			bound = &p
		}
	}

	r.mu.Lock()
	id, ok := r.allocateIDLocked()
	if !ok {
		r.mu.Unlock()
		return chat.SessionInfo{}, ErrSessionIDExhausted
	}
	conv := newConversation(id, bound, r.generator, r.metrics)
	r.sessions[id] = conv
	r.mu.Unlock()

	r.metrics.SessionCreated()
	summary := conv.Summary()
	r.events.Publish(Event{Type: EventSessionCreated, SessionID: id, Summary: &summary})

	personaLabel := "none"
	if bound != nil {
		personaLabel = bound.ID
	}
	log.Printf("[chat] created session=%s persona=%s", id, personaLabel)

	return chat.SessionInfo{ID: id, Persona: conv.Persona()}, nil
}

func (r *Registry) allocateIDLocked() (string, bool) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.newID()
		if id == "" {
			continue
		}
		if _, used := r.issued[id]; used {
			continue
		}
		r.issued[id] = struct{}{}
		return id, true
	}
	return "", false
}

// Get retrieves a live session by identifier.
func (r *Registry) Get(_ context.Context, sessionID string) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return conv, nil
}

// SendMessage delivers text to the session and returns the reply with the updated summary.
func (r *Registry) SendMessage(ctx context.Context, sessionID, text string, isRoleCheck bool) (string, chat.Summary, error) {
	conv, err := r.Get(ctx, sessionID)
	if err != nil {
		return "", chat.Summary{}, err
	}

	reply, sendErr := conv.send(ctx, text, isRoleCheck)
	if sendErr != nil {
		var genErr *GenerationError
		if errors.As(sendErr, &genErr) {
			summary := conv.Summary()
			r.events.Publish(Event{Type: EventSessionMessage, SessionID: sessionID, Summary: &summary})
		}
		return "", chat.Summary{}, sendErr
	}

	summary := conv.Summary()
	r.events.Publish(Event{Type: EventSessionMessage, SessionID: sessionID, Summary: &summary})
	return reply, summary, nil
}

// EndSession removes the session and returns its final summary. An in-flight send completes first.
func (r *Registry) EndSession(ctx context.Context, sessionID string) (chat.Summary, error) {
	conv, err := r.Get(ctx, sessionID)
	if err != nil {
		return chat.Summary{}, err
	}

	summary, err := conv.end(ctx, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.sessions[sessionID] != conv {
			return false
		}
		delete(r.sessions, sessionID)
		return true
	})
	if err != nil {
		return chat.Summary{}, err
	}

	r.metrics.SessionEnded()
	r.events.Publish(Event{Type: EventSessionEnded, SessionID: sessionID, Summary: &summary})
	log.Printf("[chat] ended session=%s total_turns=%d role_checks=%d", sessionID, summary.TotalTurns, len(summary.RoleResponses))
	return summary, nil
}

// ListSummaries returns a summary for every live session.
func (r *Registry) ListSummaries(_ context.Context) map[string]chat.Summary {
	r.mu.RLock()
	convs := make([]*Conversation, 0, len(r.sessions))
	for _, conv := range r.sessions {
		convs = append(convs, conv)
	}
	r.mu.RUnlock()

	out := make(map[string]chat.Summary, len(convs))
	for _, conv := range convs {
		out[conv.ID()] = conv.Summary()
	}
	return out
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// GeneratorAvailable reports whether sends can reach a message generator.
func (r *Registry) GeneratorAvailable() bool {
	return r.generator != nil
}
