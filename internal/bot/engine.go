package bot

import (
	"go.uber.org/zap"

	"github.com/borglike/bot/internal/core/event"
	"github.com/borglike/bot/internal/data"
)

// Engine is the per-agent decision engine. It is immutable after
// construction; all mutable state lives in the State passed to RunTick, so
// one Engine may serve several agents as long as each owns its State.
type Engine struct {
	pers    Personality
	caps    Capabilities
	classes *data.ClassTable
	bus     *event.Bus
	log     *zap.Logger
}

// Option customises engine construction.
type Option func(*Engine)

// WithBus wires a lifecycle event bus.
func WithBus(b *event.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithLogger attaches a logger for construction-time diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New builds an engine from a personality, capability grades and the class
// profile table.
func New(pers Personality, caps Capabilities, classes *data.ClassTable, opts ...Option) *Engine {
	e := &Engine{
		pers:    pers.clamped(),
		caps:    caps.Clamped(),
		classes: classes,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) emitGoalChanged(from, to *Goal) {
	if e.bus == nil {
		return
	}
	ev := event.GoalChanged{To: to.Kind.String(), Reason: to.Reason}
	if from != nil {
		ev.From = from.Kind.String()
	}
	event.Emit(e.bus, ev)
}

func (e *Engine) emitFarmingStarted(blockedDepth int, reason string) {
	if e.bus == nil {
		return
	}
	event.Emit(e.bus, event.FarmingStarted{BlockedDepth: blockedDepth, Reason: reason})
}
