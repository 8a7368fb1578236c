package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
)

// ValidateFlow checks an assembled tree and its global stack for broken jump
// targets and reserved entries that can never run.
func ValidateFlow(root *domain.DialogNode, global []domain.StackEntry) error {
	names := make(map[string]bool)
	var collect func(n *domain.DialogNode)
	collect = func(n *domain.DialogNode) {
		for _, e := range n.Stack {
			names[e.Name] = true
			if e.Dialog != nil {
				collect(e.Dialog)
			}
		}
	}
	collect(root)

	var problems []string
	check := func(where string, e domain.StackEntry) {
		if e.Jump != "" && !names[e.Jump] {
			problems = append(problems, fmt.Sprintf("%s: entry '%s' jumps to unknown entry '%s'", where, e.Name, e.Jump))
		}
		if domain.IsReserved(e.Name) && e.RequiredIntent() != "" {
			problems = append(problems, fmt.Sprintf("%s: reserved entry '%s' cannot require intent '%s'", where, e.Name, e.RequiredIntent()))
		}
		if e.Jump != "" && e.Dialog != nil {
			problems = append(problems, fmt.Sprintf("%s: entry '%s' declares both a jump and a nested dialog", where, e.Name))
		}
	}

	var walk func(n *domain.DialogNode)
	walk = func(n *domain.DialogNode) {
		for _, e := range n.Stack {
			check(n.ID, e)
			if e.Dialog != nil {
				walk(e.Dialog)
			}
		}
	}
	walk(root)
	for _, e := range global {
		check("global", e)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrInvalidFlow, len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
