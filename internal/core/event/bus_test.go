package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeAndEmit(t *testing.T) {
	bus := NewBus()

	var got []LevelChanged
	Subscribe(bus, func(ev LevelChanged) {
		got = append(got, ev)
	})
	Subscribe(bus, func(ev GoalChanged) {
		t.Fatal("wrong type must not fire")
	})

	Emit(bus, LevelChanged{Depth: 3, Turn: 120})
	assert.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Depth)
}

func TestEmitOrderAndMultipleHandlers(t *testing.T) {
	bus := NewBus()
	var order []int
	Subscribe(bus, func(AgentDied) { order = append(order, 1) })
	Subscribe(bus, func(AgentDied) { order = append(order, 2) })

	Emit(bus, AgentDied{Depth: 5, KilledBy: "troll"})
	assert.Equal(t, []int{1, 2}, order)
}

func TestEmitNilBus(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit[LevelChanged](nil, LevelChanged{})
	})
}
