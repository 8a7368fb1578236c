package domain

// Intent is the best-guess classification of an utterance.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Entity is a value extracted from an utterance.
type Entity struct {
	Name       string  `json:"name"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// NLUResult is what a classifier returns for one utterance.
// Intent is nil when nothing was classified.
type NLUResult struct {
	Text     string   `json:"text"`
	Intent   *Intent  `json:"intent,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
}

// IntentName returns the intent name or nil.
func (r *NLUResult) IntentName() *string {
	if r == nil || r.Intent == nil || r.Intent.Name == "" {
		return nil
	}
	name := r.Intent.Name
	return &name
}
