package domain

import "strings"

// Reserved entry names. Entries whose name starts with ReservedPrefix are
// always available and are never selected by predicate matching.
const (
	ReservedPrefix = "&"
	WelcomeEntry   = "&welcome"
	FallbackEntry  = "&otherwise"
)

// IsReserved reports whether name denotes a special entry.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// DialogNode is a subtree of the conversation: an id, an optional intent
// confidence override and the ordered candidate entries.
type DialogNode struct {
	ID        string       `json:"id" yaml:"id"`
	Threshold *float64     `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Stack     []StackEntry `json:"stack" yaml:"stack"`
}

// Entry returns the first entry of the node with the given name.
func (n *DialogNode) Entry(name string) (StackEntry, bool) {
	for _, e := range n.Stack {
		if e.Name == name {
			return e, true
		}
	}
	return StackEntry{}, false
}

// StackEntry is one candidate conversational step.
type StackEntry struct {
	Name       string      `json:"name" yaml:"name"`
	Condition  *Condition  `json:"condition,omitempty" yaml:"condition,omitempty"`
	Responses  []string    `json:"responses,omitempty" yaml:"responses,omitempty"`
	Slots      []SlotSpec  `json:"slots,omitempty" yaml:"slots,omitempty"`
	PreAction  string      `json:"pre_action,omitempty" yaml:"pre_action,omitempty"`
	Action     string      `json:"action,omitempty" yaml:"action,omitempty"`
	PostAction string      `json:"post_action,omitempty" yaml:"post_action,omitempty"`
	Jump       string      `json:"jump,omitempty" yaml:"jump,omitempty"`
	Dialog     *DialogNode `json:"dialog,omitempty" yaml:"dialog,omitempty"`

	// DialogRef and Import are resolved away by the assembler.
	DialogRef string `json:"dialog_ref,omitempty" yaml:"dialog_ref,omitempty"`
	Import    string `json:"import,omitempty" yaml:"import,omitempty"`
}

// IsFallback reports whether the entry is the reserved fallback.
func (e StackEntry) IsFallback() bool {
	return e.Name == FallbackEntry
}

// RequiredIntent returns the intent name the entry requires, if any.
func (e StackEntry) RequiredIntent() string {
	if e.Condition == nil {
		return ""
	}
	return e.Condition.Intent
}

// Operator compares a stored value with a literal.
type Operator string

const (
	OpEqual    Operator = "=="
	OpNotEqual Operator = "!="
)

// Condition gates a StackEntry.
type Condition struct {
	Intent     string      `json:"intent,omitempty" yaml:"intent,omitempty"`
	Entities   []Predicate `json:"entities,omitempty" yaml:"entities,omitempty"`
	Attributes []Predicate `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Predicate tests one stored entity or attribute. Exactly one shape is used:
// a registered Matcher, or an Operator with a literal Value.
type Predicate struct {
	Name     string   `json:"name" yaml:"name"`
	Matcher  string   `json:"matcher,omitempty" yaml:"matcher,omitempty"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// SlotSpec declares one value that must be resolved before an entry responds.
type SlotSpec struct {
	Entity    string   `json:"entity" yaml:"entity"`
	Questions []string `json:"questions,omitempty" yaml:"questions,omitempty"`
	Filler    string   `json:"filler,omitempty" yaml:"filler,omitempty"`
	Invalid   []string `json:"invalid,omitempty" yaml:"invalid,omitempty"`
}
