package dsl

import "github.com/aretw0/dockwise/pkg/domain"

// StackBuilder provides a fluent API for an ordered list of entries.
type StackBuilder struct {
	entries []*EntryBuilder
}

// Entry appends a new entry.
func (s *StackBuilder) Entry(name string) *EntryBuilder {
	e := &EntryBuilder{entry: domain.StackEntry{Name: name}}
	s.entries = append(s.entries, e)
	return e
}

// Import splices the entries of fragment ref at this position.
func (s *StackBuilder) Import(ref string) *StackBuilder {
	s.entries = append(s.entries, &EntryBuilder{entry: domain.StackEntry{Import: ref}})
	return s
}

// Welcome appends the welcome entry.
func (s *StackBuilder) Welcome(responses ...string) *EntryBuilder {
	return s.Entry(domain.WelcomeEntry).Say(responses...)
}

// Otherwise appends the fallback entry.
func (s *StackBuilder) Otherwise(responses ...string) *EntryBuilder {
	return s.Entry(domain.FallbackEntry).Say(responses...)
}

// Build returns the entries.
func (s *StackBuilder) Build() []domain.StackEntry {
	out := make([]domain.StackEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Build())
	}
	return out
}

// DialogBuilder configures a dialog node.
type DialogBuilder struct {
	StackBuilder
	id        string
	threshold *float64
}

// ID sets the node id. Without one the assembler derives it.
func (d *DialogBuilder) ID(id string) *DialogBuilder {
	d.id = id
	return d
}

// Threshold overrides the intent confidence threshold inside the dialog.
func (d *DialogBuilder) Threshold(t float64) *DialogBuilder {
	d.threshold = &t
	return d
}

// Build returns the node.
func (d *DialogBuilder) Build() domain.DialogNode {
	return domain.DialogNode{ID: d.id, Threshold: d.threshold, Stack: d.StackBuilder.Build()}
}

// EntryBuilder configures one entry.
type EntryBuilder struct {
	entry  domain.StackEntry
	nested *DialogBuilder
}

func (e *EntryBuilder) condition() *domain.Condition {
	if e.entry.Condition == nil {
		e.entry.Condition = &domain.Condition{}
	}
	return e.entry.Condition
}

// Intent requires the classified intent.
func (e *EntryBuilder) Intent(name string) *EntryBuilder {
	e.condition().Intent = name
	return e
}

// WhenEntity requires the stored entity to compare with value.
func (e *EntryBuilder) WhenEntity(name string, op domain.Operator, value any) *EntryBuilder {
	c := e.condition()
	c.Entities = append(c.Entities, domain.Predicate{Name: name, Operator: op, Value: value})
	return e
}

// WhenEntityMatches requires the registered matcher to accept the stored entity.
func (e *EntryBuilder) WhenEntityMatches(name, matcher string) *EntryBuilder {
	c := e.condition()
	c.Entities = append(c.Entities, domain.Predicate{Name: name, Matcher: matcher})
	return e
}

// WhenAttribute requires the stored attribute to compare with value.
func (e *EntryBuilder) WhenAttribute(name string, op domain.Operator, value any) *EntryBuilder {
	c := e.condition()
	c.Attributes = append(c.Attributes, domain.Predicate{Name: name, Operator: op, Value: value})
	return e
}

// WhenAttributeMatches requires the registered matcher to accept the stored attribute.
func (e *EntryBuilder) WhenAttributeMatches(name, matcher string) *EntryBuilder {
	c := e.condition()
	c.Attributes = append(c.Attributes, domain.Predicate{Name: name, Matcher: matcher})
	return e
}

// Say adds response templates; one is picked at random per turn.
func (e *EntryBuilder) Say(responses ...string) *EntryBuilder {
	e.entry.Responses = append(e.entry.Responses, responses...)
	return e
}

// Slot requires entity before responding, asking one of questions.
func (e *EntryBuilder) Slot(entity string, questions ...string) *EntryBuilder {
	e.entry.Slots = append(e.entry.Slots, domain.SlotSpec{Entity: entity, Questions: questions})
	return e
}

// SlotSpec adds a fully specified slot.
func (e *EntryBuilder) SlotSpec(spec domain.SlotSpec) *EntryBuilder {
	e.entry.Slots = append(e.entry.Slots, spec)
	return e
}

// Pre sets the action run before slots are filled.
func (e *EntryBuilder) Pre(action string) *EntryBuilder {
	e.entry.PreAction = action
	return e
}

// Do sets the main action, run after the response.
func (e *EntryBuilder) Do(action string) *EntryBuilder {
	e.entry.Action = action
	return e
}

// Post sets the action run last.
func (e *EntryBuilder) Post(action string) *EntryBuilder {
	e.entry.PostAction = action
	return e
}

// Jump continues with the named entry once this one is done.
func (e *EntryBuilder) Jump(target string) *EntryBuilder {
	e.entry.Jump = target
	return e
}

// Dialog descends into the dialog fragment ref.
func (e *EntryBuilder) Dialog(ref string) *EntryBuilder {
	e.entry.DialogRef = ref
	e.nested = nil
	return e
}

// Nested descends into an inline dialog and returns its builder.
func (e *EntryBuilder) Nested(id string) *DialogBuilder {
	e.entry.DialogRef = ""
	e.nested = &DialogBuilder{id: id}
	return e.nested
}

// Build returns the entry.
func (e *EntryBuilder) Build() domain.StackEntry {
	out := e.entry
	if e.nested != nil {
		node := e.nested.Build()
		out.Dialog = &node
	}
	return out
}
