package compiler

import (
	"fmt"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Parser converts raw, already-deserialized flow data (maps and lists as
// produced by yaml.v3 or encoding/json) into domain values.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseNode decodes a raw dialog node.
func (p *Parser) ParseNode(raw any) (*domain.DialogNode, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: dialog node must be a map, got %T", domain.ErrInvalidFlow, raw)
	}

	node := &domain.DialogNode{}
	if id, ok := m["id"]; ok {
		node.ID = fmt.Sprint(id)
	}
	if th, ok := m["threshold"]; ok && th != nil {
		var f float64
		if err := decode(th, &f); err != nil {
			return nil, fmt.Errorf("%w: node '%s' threshold: %v", domain.ErrInvalidFlow, node.ID, err)
		}
		node.Threshold = &f
	}

	if rawStack, ok := m["stack"]; ok && rawStack != nil {
		stack, err := p.ParseStack(rawStack)
		if err != nil {
			return nil, fmt.Errorf("node '%s': %w", node.ID, err)
		}
		node.Stack = stack
	}
	return node, nil
}

// ParseStack decodes a raw entry list.
func (p *Parser) ParseStack(raw any) ([]domain.StackEntry, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: stack must be a list, got %T", domain.ErrInvalidFlow, raw)
	}

	entries := make([]domain.StackEntry, 0, len(list))
	for i, item := range list {
		e, err := p.ParseEntry(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseEntry decodes one raw entry. A "dialog" value may be an embedded node
// (map) or a reference name (string).
func (p *Parser) ParseEntry(raw any) (domain.StackEntry, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.StackEntry{}, fmt.Errorf("%w: entry must be a map, got %T", domain.ErrInvalidFlow, raw)
	}

	fields := make(map[string]any, len(m))
	for k, v := range m {
		fields[k] = v
	}

	var entry domain.StackEntry
	if d, ok := fields["dialog"]; ok {
		delete(fields, "dialog")
		switch v := d.(type) {
		case nil:
		case string:
			entry.DialogRef = v
		default:
			child, err := p.ParseNode(v)
			if err != nil {
				return domain.StackEntry{}, err
			}
			entry.Dialog = child
		}
	}

	if err := decode(fields, &entry); err != nil {
		return domain.StackEntry{}, fmt.Errorf("%w: %v", domain.ErrInvalidFlow, err)
	}

	if entry.Import == "" && entry.Name == "" {
		return domain.StackEntry{}, fmt.Errorf("%w: entry without name", domain.ErrInvalidFlow)
	}
	if err := checkCondition(entry.Condition); err != nil {
		return domain.StackEntry{}, fmt.Errorf("entry '%s': %w", entry.Name, err)
	}
	return entry, nil
}

func checkCondition(c *domain.Condition) error {
	if c == nil {
		return nil
	}
	for _, list := range [][]domain.Predicate{c.Entities, c.Attributes} {
		for _, pr := range list {
			if pr.Name == "" {
				return fmt.Errorf("%w: predicate without name", domain.ErrInvalidFlow)
			}
			if pr.Matcher != "" {
				continue
			}
			switch pr.Operator {
			case domain.OpEqual, domain.OpNotEqual:
			case "":
				return fmt.Errorf("%w: predicate '%s' needs a matcher or an operator", domain.ErrInvalidFlow, pr.Name)
			default:
				return fmt.Errorf("%w: predicate '%s' has unknown operator '%s'", domain.ErrInvalidFlow, pr.Name, pr.Operator)
			}
		}
	}
	return nil
}

func decode(input any, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      output,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
