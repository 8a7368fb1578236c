/*
Package dockwise runs tree-shaped conversations for a container image assistant.

A flow is a tree of dialog nodes. Each node holds an ordered stack of entries;
an entry is gated by a condition on the detected intent, the extracted
entities and the session attributes, and when it is selected it may collect
slots, run actions, display responses, jump to another entry or descend into
a nested dialog.

# Loading

Flows are stored as fragments (YAML documents) and resolved by reference. An
entry may import the entries of another fragment in place, or reference a
fragment as its nested dialog. New assembles the tree once, validates it and
checks that every action, matcher and filler it names is registered, so
configuration mistakes surface before the first turn.

	resolver := file.NewDirResolver("./flows")
	reg := registry.NewRegistry()
	assistant.New(docker.NewClient(), store, os.Stdout).Register(reg)

	eng, err := dockwise.New(resolver, reg,
		dockwise.WithGlobal("global"),
		dockwise.WithClassifier(classifier),
	)
	if err != nil {
		log.Fatal(err)
	}

# Conversations

Converse runs one conversation. Input comes from an InputSource, responses go
to every Sink in order.

	handler := runner.NewTextHandler(os.Stdin, os.Stdout)
	session, err := eng.Converse(ctx, handler.Input, handler.Sink)
	if errors.Is(err, domain.ErrExit) || errors.Is(err, io.EOF) {
		err = nil
	}

The conversation state lives in the returned session: the current position
in the tree, the entities detected so far and the attributes written by
actions and slots.
*/
package dockwise
