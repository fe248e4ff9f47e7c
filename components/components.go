// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/inkflow/pigment"

// Pointer identifies one input pointer and its current state. Pointer
// entities are created on first contact and reused afterwards.
type Pointer struct {
	ID    int32        `inspect:"label"`
	Down  bool         `inspect:"bool"`
	Moved bool         `inspect:"bool"` // an impulse is owed at the next tick
	Color pigment.RGBA `inspect:"swatch"`
}

// Stroke holds the pointer's texture-space position and the delta since the
// last move, already aspect-corrected.
type Stroke struct {
	X     float32 `inspect:"label,fmt:%.3f"`
	Y     float32 `inspect:"label,fmt:%.3f"`
	PrevX float32 `inspect:"skip"`
	PrevY float32 `inspect:"skip"`
	DX    float32 `inspect:"bar,min:-0.05,max:0.05"`
	DY    float32 `inspect:"bar,min:-0.05,max:0.05"`
}
