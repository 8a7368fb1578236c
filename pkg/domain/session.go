package domain

import "github.com/google/uuid"

// Lifespan controls when an attribute is purged.
type Lifespan string

const (
	// LifespanDefault attributes persist for the whole session.
	LifespanDefault Lifespan = "default"
	// LifespanStep attributes are purged at the end of every turn.
	LifespanStep Lifespan = "step"
)

// Attribute is a session value with a lifespan.
type Attribute struct {
	Value    any      `json:"value"`
	Lifespan Lifespan `json:"lifespan"`
}

// Session is the single mutable conversation state. It is created once and
// mutated in place by the interpreter and the handlers it invokes.
type Session struct {
	ID         string               `json:"id"`
	Position   string               `json:"position"`
	Threshold  float64              `json:"threshold"`
	Entities   map[string]any       `json:"entities"`
	Attributes map[string]Attribute `json:"attributes"`
}

// NewSession creates an empty session positioned at rootID.
func NewSession(rootID string, threshold float64) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Position:   rootID,
		Threshold:  threshold,
		Entities:   make(map[string]any),
		Attributes: make(map[string]Attribute),
	}
}

// SetEntity stores (or overwrites) an entity value.
func (s *Session) SetEntity(name string, value any) {
	s.Entities[name] = value
}

// Entity returns the stored entity value.
func (s *Session) Entity(name string) (any, bool) {
	v, ok := s.Entities[name]
	return v, ok
}

// ForgetEntity discards a stored entity value.
func (s *Session) ForgetEntity(name string) {
	delete(s.Entities, name)
}

// SetAttribute stores (or overwrites) an attribute. An empty lifespan means LifespanDefault.
func (s *Session) SetAttribute(name string, value any, lifespan Lifespan) {
	if lifespan == "" {
		lifespan = LifespanDefault
	}
	s.Attributes[name] = Attribute{Value: value, Lifespan: lifespan}
}

// Attribute returns the stored attribute value.
func (s *Session) Attribute(name string) (any, bool) {
	a, ok := s.Attributes[name]
	if !ok {
		return nil, false
	}
	return a.Value, true
}

// PurgeStepAttributes removes every attribute with LifespanStep.
func (s *Session) PurgeStepAttributes() {
	for k, a := range s.Attributes {
		if a.Lifespan == LifespanStep {
			delete(s.Attributes, k)
		}
	}
}

// Reset clears entities and attributes, keeping id and position.
func (s *Session) Reset() {
	s.Entities = make(map[string]any)
	s.Attributes = make(map[string]Attribute)
}
