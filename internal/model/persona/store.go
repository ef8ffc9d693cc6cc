package persona

// Store exposes persona retrieval for the session registry and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice fixed at construction.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	copied := make([]Persona, 0, len(items))
	for _, item := range items {
		copied = append(copied, item.Clone())
	}
	return &MemoryStore{items: copied}
}

// List returns the personas in definition order.
func (s *MemoryStore) List() []Persona {
	out := make([]Persona, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	return out
}

// FindByID looks up a persona by identifier. An empty id never matches.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	if id == "" {
		return Persona{}, false
	}
	for _, item := range s.items {
		if item.ID == id {
			return item.Clone(), true
		}
	}
	return Persona{}, false
}

// Catalog is the immutable configuration served to clients: personas, follow-ups and the role probe.
type Catalog struct {
	Personas          Store
	FollowUps         []string
	RoleCheckQuestion string
}

// DefaultCatalog builds the catalog from the built-in data.
func DefaultCatalog() Catalog {
	return Catalog{
		Personas:          NewMemoryStore(Seed()),
		FollowUps:         FollowUps(),
		RoleCheckQuestion: RoleCheckQuestion,
	}
}
