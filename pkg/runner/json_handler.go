package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
)

// Message types written by JSONHandler.
const (
	MessageResponse = "response"
	MessageSystem   = "system"
)

// Message is one JSON line written by JSONHandler.
type Message struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Session  string `json:"session,omitempty"`
	Position string `json:"position,omitempty"`
}

// Utterance is the accepted JSON input shape. Plain JSON strings and raw
// text lines are accepted too.
type Utterance struct {
	Text string `json:"text"`
}

// JSONHandler implements IOHandler over JSON Lines.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Input reads one line: {"text": "..."}, a JSON string or raw text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return "", err
	}
	line = strings.TrimSpace(line)

	var u Utterance
	if err := json.Unmarshal([]byte(line), &u); err == nil {
		return SanitizeInput(strings.TrimSpace(u.Text))
	}
	var s string
	if err := json.Unmarshal([]byte(line), &s); err == nil {
		return SanitizeInput(strings.TrimSpace(s))
	}
	return SanitizeInput(line)
}

// Sink emits a response message.
func (h *JSONHandler) Sink(_ context.Context, text string, s *domain.Session) error {
	msg := Message{Type: MessageResponse, Text: text}
	if s != nil {
		msg.Session = s.ID
		msg.Position = s.Position
	}
	return h.Encoder.Encode(msg)
}

// SystemOutput emits a system message.
func (h *JSONHandler) SystemOutput(_ context.Context, text string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Text: text})
}
