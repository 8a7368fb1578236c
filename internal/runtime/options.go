package runtime

import (
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Interpreter) {
		i.hooks = i.hooks.Merge(hooks)
	}
}

// WithSinks registers output sinks, called in order for every response.
func WithSinks(sinks ...Sink) Option {
	return func(i *Interpreter) {
		i.sinks = append(i.sinks, sinks...)
	}
}

// WithOutput sets the writer used when no sink is registered.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.out = w
	}
}

// WithMismatchObservers registers callbacks invoked when the fallback entry runs.
func WithMismatchObservers(observers ...MismatchObserver) Option {
	return func(i *Interpreter) {
		i.observers = append(i.observers, observers...)
	}
}

// WithInput sets the source of user text.
func WithInput(input InputSource) Option {
	return func(i *Interpreter) {
		i.input = input
	}
}

// WithClassifier sets the NLU classifier. Without one every utterance is unclassified.
func WithClassifier(c ports.Classifier) Option {
	return func(i *Interpreter) {
		i.classifier = c
	}
}

// WithGlobalStack sets entries available from every position.
func WithGlobalStack(entries []domain.StackEntry) Option {
	return func(i *Interpreter) {
		i.global = entries
	}
}

// WithDefaultThreshold sets the intent confidence floor used by nodes without an override.
func WithDefaultThreshold(t float64) Option {
	return func(i *Interpreter) {
		i.threshold = t
	}
}

// WithEntityFloor sets the minimum confidence for extracted entities to be stored.
func WithEntityFloor(f float64) Option {
	return func(i *Interpreter) {
		i.entityFloor = f
	}
}

// WithMaxSlotAttempts bounds rejected values per slot. 0 means unbounded.
func WithMaxSlotAttempts(n int) Option {
	return func(i *Interpreter) {
		i.maxAttempts = n
	}
}

// WithPurgePolicy selects whether jumps purge step attributes.
func WithPurgePolicy(p PurgePolicy) Option {
	return func(i *Interpreter) {
		i.purge = p
	}
}

// WithRand sets the random source used to pick responses and questions.
func WithRand(rng *rand.Rand) Option {
	return func(i *Interpreter) {
		i.rng = rng
	}
}

// WithSeed makes response selection deterministic.
func WithSeed(seed uint64) Option {
	return func(i *Interpreter) {
		i.rng = rand.New(rand.NewPCG(seed, seed))
	}
}
