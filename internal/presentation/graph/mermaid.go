package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	// Position is the dialog the session is in.
	Position string
	// Visited lists dialog ids the session went through.
	Visited []string
}

// GenerateMermaid produces a Mermaid flowchart of an assembled tree.
// Dialogs are drawn as rounded boxes and entries by role:
//   - welcome: ((Circle))
//   - fallback: {{Hexagon}}
//   - entries with slots: [/Parallelogram/]
//   - entries running actions: [[Subroutine]]
//   - default: [Rectangle]
//
// Edges from a dialog to its entries carry the required intent; nested
// dialogs hang off their entry and jumps are dotted. Global entries are drawn
// in their own "global" group.
func GenerateMermaid(root *domain.DialogNode, global []domain.StackEntry, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	targets := make(map[string]string)
	var index func(n *domain.DialogNode)
	index = func(n *domain.DialogNode) {
		for _, e := range n.Stack {
			if _, ok := targets[e.Name]; !ok {
				targets[e.Name] = entryID(n.ID, e.Name)
			}
			if e.Dialog != nil {
				index(e.Dialog)
			}
		}
	}
	index(root)

	var draw func(owner string, n *domain.DialogNode)
	drawEntries := func(owner string, stack []domain.StackEntry) {
		for _, e := range stack {
			id := entryID(owner, e.Name)
			fmt.Fprintf(&sb, "    %s%s\n", id, shape(e))

			arrow := "-->"
			if intent := e.RequiredIntent(); intent != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", quote(intent))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", dialogID(owner), arrow, id)

			if e.Jump != "" {
				if to, ok := targets[e.Jump]; ok {
					fmt.Fprintf(&sb, "    %s -. jump .-> %s\n", id, to)
				}
			}
			if e.Dialog != nil {
				fmt.Fprintf(&sb, "    %s --> %s\n", id, dialogID(e.Dialog.ID))
			}
		}
	}
	draw = func(owner string, n *domain.DialogNode) {
		fmt.Fprintf(&sb, "    %s(\"%s\")\n", dialogID(n.ID), quote(n.ID))
		drawEntries(n.ID, n.Stack)
		for _, e := range n.Stack {
			if e.Dialog != nil {
				draw(n.ID, e.Dialog)
			}
		}
	}
	draw("", root)

	if len(global) > 0 {
		fmt.Fprintf(&sb, "    %s(\"global\")\n", dialogID("global"))
		drawEntries("global", global)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			if id == "" || seen[id] || id == overlay.Position {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", dialogID(id))
		}
		if overlay.Position != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", dialogID(overlay.Position))
		}
	}

	return sb.String()
}

func shape(e domain.StackEntry) string {
	label := quote(e.Name)
	switch {
	case e.Name == domain.WelcomeEntry:
		return fmt.Sprintf("((\"%s\"))", label)
	case e.IsFallback():
		return fmt.Sprintf("{{\"%s\"}}", label)
	case len(e.Slots) > 0:
		return fmt.Sprintf("[/\"%s\"/]", label)
	case e.PreAction != "" || e.Action != "" || e.PostAction != "":
		return fmt.Sprintf("[[\"%s\"]]", label)
	}
	return fmt.Sprintf("[\"%s\"]", label)
}

func dialogID(id string) string {
	return "d_" + sanitizeMermaidID(id)
}

func entryID(owner, name string) string {
	return "e_" + sanitizeMermaidID(owner) + "__" + sanitizeMermaidID(name)
}

func quote(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

var mermaidReplacer = strings.NewReplacer(
	".", "_",
	"-", "_",
	"/", "_",
	"\\", "_",
	" ", "_",
	":", "_",
	"&", "amp_",
)

func sanitizeMermaidID(id string) string {
	return mermaidReplacer.Replace(id)
}
