package domain

// Defaults shared by the interpreter and the host.
const (
	// DefaultThreshold is the root intent confidence floor.
	DefaultThreshold = 0.6

	// DefaultEntityFloor is the minimum confidence for an extracted entity to be stored.
	DefaultEntityFloor = 0.5

	// FallbackResponse is used when a node declares no fallback entry.
	FallbackResponse = "Sorry, I could not understand that."

	// RepromptResponse is used when descending into a dialog finds nothing to do.
	RepromptResponse = "Sorry, could you say that again?"

	// InvalidResponse is used when a slot declares no invalid templates.
	InvalidResponse = "Sorry, that is not a valid value."
)
