/*
Package domain contains the core data model of the dockwise dialog interpreter.

It is kept pure and free of I/O, following the hexagonal layout of the rest of
the module.

# Key Entities

  - DialogNode: a subtree of the conversation (id, threshold override, entries).
  - StackEntry: one candidate step (condition, responses, slots, actions, jump, nested dialog).
  - Session: the single mutable conversation state (position, threshold, entities, attributes).
  - NLUResult: the classification of one utterance.
  - RunSettings: saved options for starting a container from an image.
*/
package domain
