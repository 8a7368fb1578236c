package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
)

// ErrNoInput is returned when a turn needs user text and no input source is configured.
var ErrNoInput = errors.New("no input source configured")

// MismatchObserver is notified whenever the fallback entry runs. stack is a
// copy of the active stack at that moment.
type MismatchObserver func(ctx context.Context, nlu *domain.NLUResult, stack []domain.StackEntry, s *domain.Session) error

// Interpreter runs one conversation over an assembled tree.
// It is not safe for concurrent use.
type Interpreter struct {
	index   *Index
	global  []domain.StackEntry
	session *domain.Session
	active  []domain.StackEntry

	handlers   Handlers
	classifier ports.Classifier
	input      InputSource
	sinks      []Sink
	out        io.Writer
	observers  []MismatchObserver

	threshold   float64
	entityFloor float64
	maxAttempts int
	purge       PurgePolicy
	rng         *rand.Rand
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	evaluator *Evaluator
	filler    *SlotFiller
	pipeline  *Pipeline
	renderer  *Renderer
	tracer    tracer
}

// step is the entry to process next and the NLU result that led to it.
type step struct {
	entry domain.StackEntry
	nlu   *domain.NLUResult
}

// New creates an interpreter positioned at the root of an assembled tree.
func New(root *domain.DialogNode, handlers Handlers, opts ...Option) (*Interpreter, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty flow", domain.ErrInvalidFlow)
	}
	if handlers == nil {
		return nil, errors.New("runtime: nil handlers")
	}

	i := &Interpreter{
		index:       NewIndex(root),
		handlers:    handlers,
		threshold:   domain.DefaultThreshold,
		entityFloor: domain.DefaultEntityFloor,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = logging.NewNop()
	}
	if i.rng == nil {
		seed := uint64(time.Now().UnixNano())
		i.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	i.tracer = tracer{hooks: i.hooks}
	i.renderer = NewRenderer(i.out, i.sinks...)
	i.evaluator = NewEvaluator(handlers, i.hooks, i.logger)
	i.pipeline = NewPipeline(handlers, i.purge, i.hooks, i.logger)
	i.filler = NewSlotFiller(handlers, i.renderer, i.input, i.rng, i.maxAttempts, i.hooks, i.logger)

	i.session = domain.NewSession(root.ID, i.threshold)
	return i, nil
}

// Session returns the live session.
func (i *Interpreter) Session() *domain.Session {
	return i.session
}

// ActiveStack returns a copy of the entries currently eligible for matching.
func (i *Interpreter) ActiveStack() []domain.StackEntry {
	return slices.Clone(i.active)
}

// Index returns the tree index.
func (i *Interpreter) Index() *Index {
	return i.index
}

// Start positions the session at the root and processes its welcome entry,
// then keeps running turns until the conversation ends.
//
// It returns domain.ErrExit when an action ends the conversation, the input
// source's error (io.EOF when input is exhausted), or nil when an entry with
// nothing left to do completes the conversation.
func (i *Interpreter) Start(ctx context.Context) error {
	root := i.index.Root()
	if err := i.reposition(ctx, root.ID, false); err != nil {
		return err
	}

	entry, ok := root.Entry(domain.WelcomeEntry)
	if !ok {
		var err error
		entry, err = i.evaluator.Match(ctx, i.active, nil, i.session)
		if err != nil {
			return err
		}
	}
	return i.run(ctx, entry, nil)
}

func (i *Interpreter) run(ctx context.Context, entry domain.StackEntry, nlu *domain.NLUResult) error {
	next := &step{entry: entry, nlu: nlu}
	for next != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		next, err = i.turn(ctx, next.entry, next.nlu)
		if err != nil {
			return err
		}
	}
	i.logger.Debug("conversation complete", "position", i.session.Position)
	return nil
}

// turn processes one matched entry and returns what to process next, or nil
// when the conversation is complete.
func (i *Interpreter) turn(ctx context.Context, e domain.StackEntry, nlu *domain.NLUResult) (*step, error) {
	s := i.session
	i.tracer.entry(ctx, domain.EventEntryMatched, s, e.Name, nlu.IntentName())
	i.logger.Debug("processing entry", "entry", e.Name, "position", s.Position)

	if err := i.pipeline.RunPre(ctx, e, s, nlu); err != nil {
		return nil, err
	}

	if e.IsFallback() {
		i.mismatch(ctx, nlu)
	}

	if err := i.filler.FillAll(ctx, e.Slots, s); err != nil {
		return nil, err
	}

	if len(e.Responses) > 0 {
		if err := i.renderer.Say(ctx, pick(i.rng, e.Responses), s); err != nil {
			return nil, err
		}
	}

	if err := i.pipeline.RunMain(ctx, e, s, nlu); err != nil {
		return nil, err
	}

	switch {
	case e.Jump != "":
		if err := i.pipeline.RunPost(ctx, e, s, nlu); err != nil {
			return nil, err
		}
		node, target, ok := i.index.Locate(e.Jump)
		if !ok {
			return nil, &domain.ConfigError{Kind: domain.KindJump, Name: e.Jump, Err: domain.ErrInvalidFlow}
		}
		if err := i.reposition(ctx, node.ID, false); err != nil {
			return nil, err
		}
		return &step{entry: target, nlu: nlu}, nil

	case e.Dialog != nil && len(e.Responses) == 0:
		if err := i.pipeline.RunPost(ctx, e, s, nlu); err != nil {
			return nil, err
		}
		if err := i.reposition(ctx, e.Dialog.ID, true); err != nil {
			return nil, err
		}
		found, ok, err := i.evaluator.Find(ctx, i.active, nil, s)
		if err != nil {
			return nil, err
		}
		if !ok {
			found = domain.StackEntry{Name: domain.FallbackEntry, Responses: []string{domain.RepromptResponse}}
		}
		return &step{entry: found, nlu: nlu}, nil

	case e.Dialog != nil:
		if err := i.pipeline.RunPost(ctx, e, s, nlu); err != nil {
			return nil, err
		}
		if err := i.reposition(ctx, e.Dialog.ID, true); err != nil {
			return nil, err
		}

	default:
		if err := i.pipeline.RunPost(ctx, e, s, nlu); err != nil {
			return nil, err
		}
	}

	if len(e.Responses) == 0 {
		return nil, nil
	}
	return i.listen(ctx)
}

// listen solicits one utterance, classifies it and matches it against the active stack.
func (i *Interpreter) listen(ctx context.Context) (*step, error) {
	if i.input == nil {
		return nil, ErrNoInput
	}

	var text string
	for text == "" {
		line, err := i.input(ctx)
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(line)
	}

	result, err := i.classify(ctx, text)
	if err != nil {
		return nil, err
	}

	intent := result.IntentName()
	i.logger.Debug("utterance classified", "text", text, "intent", intent, "entities", len(result.Entities))
	if intent == nil {
		return &step{entry: Fallback(i.active), nlu: result}, nil
	}

	// entities only count for a classified utterance
	for _, ent := range result.Entities {
		if ent.Confidence > i.entityFloor {
			i.session.SetEntity(ent.Name, ent.Value)
		}
	}

	match, err := i.evaluator.Match(ctx, i.active, intent, i.session)
	if err != nil {
		return nil, err
	}
	return &step{entry: match, nlu: result}, nil
}

// classify calls the classifier and drops an intent whose confidence is at or
// below the session threshold. The classifier's result is not modified.
func (i *Interpreter) classify(ctx context.Context, text string) (*domain.NLUResult, error) {
	result := &domain.NLUResult{Text: text}
	if i.classifier != nil {
		r, err := i.classifier.Classify(ctx, text, i.session.Threshold)
		if err != nil {
			return nil, fmt.Errorf("classify: %w", err)
		}
		if r != nil {
			copied := *r
			result = &copied
		}
	}
	if result.Text == "" {
		result.Text = text
	}
	if result.Intent != nil && result.Intent.Confidence <= i.session.Threshold {
		result.Intent = nil
	}
	return result, nil
}

// reposition moves the session to node id, recomputes the active stack and,
// when welcome is set, displays the node's welcome response.
func (i *Interpreter) reposition(ctx context.Context, id string, welcome bool) error {
	node, ok := i.index.Node(id)
	if !ok {
		return &domain.ConfigError{Kind: domain.KindJump, Name: id, Err: domain.ErrInvalidFlow}
	}

	s := i.session
	s.Position = node.ID
	s.Threshold = i.threshold
	if node.Threshold != nil {
		s.Threshold = *node.Threshold
	}

	active := make([]domain.StackEntry, 0, len(node.Stack)+len(i.global))
	active = append(active, node.Stack...)
	for _, g := range i.global {
		if !domain.IsReserved(g.Name) {
			g.Name = node.ID + "/" + g.Name
		}
		active = append(active, g)
	}
	i.active = active

	i.tracer.entry(ctx, domain.EventReposition, s, "", nil)
	i.logger.Debug("repositioned", "position", node.ID, "threshold", s.Threshold)

	if welcome {
		if w, ok := node.Entry(domain.WelcomeEntry); ok && len(w.Responses) > 0 {
			return i.renderer.Say(ctx, pick(i.rng, w.Responses), s)
		}
	}
	return nil
}

func (i *Interpreter) mismatch(ctx context.Context, nlu *domain.NLUResult) {
	i.tracer.entry(ctx, domain.EventMismatch, i.session, domain.FallbackEntry, nlu.IntentName())
	for _, obs := range i.observers {
		if err := obs(ctx, nlu, i.ActiveStack(), i.session); err != nil {
			i.logger.Warn("mismatch observer failed", "error", err)
		}
	}
}
