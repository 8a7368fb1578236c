package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
)

// InputSource returns one line of raw user text.
type InputSource func(ctx context.Context) (string, error)

// SlotFiller resolves the slots of an entry one at a time.
type SlotFiller struct {
	handlers    Handlers
	renderer    *Renderer
	input       InputSource
	rng         *rand.Rand
	maxAttempts int
	tracer      tracer
	logger      *slog.Logger
}

// NewSlotFiller creates a slot filler. maxAttempts bounds the number of
// rejected values per slot; 0 means unbounded.
func NewSlotFiller(handlers Handlers, renderer *Renderer, input InputSource, rng *rand.Rand, maxAttempts int, hooks domain.LifecycleHooks, logger *slog.Logger) *SlotFiller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SlotFiller{
		handlers:    handlers,
		renderer:    renderer,
		input:       input,
		rng:         rng,
		maxAttempts: maxAttempts,
		tracer:      tracer{hooks: hooks},
		logger:      logger,
	}
}

// FillAll resolves slots sequentially in declaration order.
func (f *SlotFiller) FillAll(ctx context.Context, slots []domain.SlotSpec, s *domain.Session) error {
	for _, slot := range slots {
		if err := f.Fill(ctx, slot, s); err != nil {
			return err
		}
	}
	return nil
}

// Fill loops until the slot's entity holds an accepted value.
//
// A stored value is re-validated when the entity has a validator. An unset
// value is asked for: the question is emitted, then the fill-handler is
// trusted if one is declared, otherwise one line of input is read and stored
// for validation on the next iteration.
func (f *SlotFiller) Fill(ctx context.Context, slot domain.SlotSpec, s *domain.Session) error {
	rejected := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if value, ok := s.Entity(slot.Entity); ok {
			validate, has := f.handlers.Validator(slot.Entity)
			if !has {
				return nil
			}

			var normalized any
			var valid bool
			err := f.tracer.call(ctx, s, domain.KindValidator, slot.Entity, func() error {
				var err error
				normalized, valid, err = validate(ctx, value)
				return err
			})
			if err != nil {
				return fmt.Errorf("validator '%s': %w", slot.Entity, err)
			}
			if valid {
				s.SetEntity(slot.Entity, normalized)
				return nil
			}

			f.logger.Debug("slot value rejected", "entity", slot.Entity, "value", value)
			s.ForgetEntity(slot.Entity)
			if err := f.say(ctx, slot.Invalid, domain.InvalidResponse, s); err != nil {
				return err
			}
			rejected++
			if f.maxAttempts > 0 && rejected >= f.maxAttempts {
				return fmt.Errorf("slot '%s': %w", slot.Entity, domain.ErrSlotAttemptsExceeded)
			}
			continue
		}

		if err := f.say(ctx, slot.Questions, "", s); err != nil {
			return err
		}

		if slot.Filler != "" {
			fill, ok := f.handlers.Filler(slot.Filler)
			if !ok {
				return domain.MissingHandler(domain.KindFiller, slot.Filler)
			}
			var value any
			err := f.tracer.call(ctx, s, domain.KindFiller, slot.Filler, func() error {
				var err error
				value, err = fill(ctx, s)
				return err
			})
			if err != nil {
				return fmt.Errorf("filler '%s': %w", slot.Filler, err)
			}
			if value != nil {
				s.SetEntity(slot.Entity, value)
				return nil
			}
			// Nothing found: ask the user instead.
		}

		text, err := f.readLine(ctx)
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		s.SetEntity(slot.Entity, text)
	}
}

func (f *SlotFiller) readLine(ctx context.Context) (string, error) {
	if f.input == nil {
		return "", ErrNoInput
	}
	text, err := f.input(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (f *SlotFiller) say(ctx context.Context, templates []string, fallback string, s *domain.Session) error {
	t := pick(f.rng, templates)
	if t == "" {
		t = fallback
	}
	if t == "" {
		return nil
	}
	return f.renderer.Say(ctx, t, s)
}

func pick(rng *rand.Rand, list []string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	}
	return list[rng.IntN(len(list))]
}
