package rain

import (
	"sync/atomic"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// TriggerState holds the active trigger shared by the surface and its lines
type TriggerState struct {
	v atomic.Int32
}

// NewTriggerState creates a state holding t
func NewTriggerState(t types.Trigger) *TriggerState {
	s := &TriggerState{}
	s.Set(t)
	return s
}

// Load returns the active trigger
func (s *TriggerState) Load() types.Trigger {
	return types.Trigger(s.v.Load())
}

// Set makes t the active trigger
func (s *TriggerState) Set(t types.Trigger) {
	s.v.Store(int32(t))
}

// Consume resets the state to Run if t is still the active trigger
func (s *TriggerState) Consume(t types.Trigger) bool {
	return s.v.CompareAndSwap(int32(t), int32(types.TriggerRun))
}
