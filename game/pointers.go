package game

import (
	"fmt"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/inkflow/components"
	"github.com/pthm-cable/inkflow/inspector"
	"github.com/pthm-cable/inkflow/pigment"
)

// PointerRegistry tracks input pointers as ECS entities. Entities are created
// on first contact and never removed; a pointer id maps to the same entity for
// the lifetime of the registry.
type PointerRegistry struct {
	world  *ecs.World
	mapper *ecs.Map2[components.Pointer, components.Stroke]
	filter *ecs.Filter2[components.Pointer, components.Stroke]
	byID   map[int32]ecs.Entity

	canvas components.Canvas
}

// NewPointerRegistry creates an empty registry for a canvas of w x h pixels.
func NewPointerRegistry(w, h float32) *PointerRegistry {
	world := ecs.NewWorld()
	return &PointerRegistry{
		world:  world,
		mapper: ecs.NewMap2[components.Pointer, components.Stroke](world),
		filter: ecs.NewFilter2[components.Pointer, components.Stroke](world),
		byID:   make(map[int32]ecs.Entity),
		canvas: components.Canvas{Width: w, Height: h},
	}
}

// SetCanvas updates the pixel size used to normalize positions.
func (r *PointerRegistry) SetCanvas(w, h float32) {
	r.canvas = components.Canvas{Width: w, Height: h}
}

// Len returns the number of known pointers.
func (r *PointerRegistry) Len() int {
	return len(r.byID)
}

func (r *PointerRegistry) texcoord(px, py float32) (float32, float32) {
	if r.canvas.Width <= 0 || r.canvas.Height <= 0 {
		return 0, 0
	}
	return px / r.canvas.Width, 1 - py/r.canvas.Height
}

// Down presses pointer id at pixel (px, py). The pointer is marked moved with
// a zero delta so the next tick deposits its color in place.
func (r *PointerRegistry) Down(id int32, px, py float32, color pigment.RGBA) {
	x, y := r.texcoord(px, py)

	e, ok := r.byID[id]
	if !ok {
		p := components.Pointer{ID: id}
		s := components.Stroke{}
		e = r.mapper.NewEntity(&p, &s)
		r.byID[id] = e
	}

	p, s := r.mapper.Get(e)
	p.Down = true
	p.Moved = true
	p.Color = color
	s.X, s.Y = x, y
	s.PrevX, s.PrevY = x, y
	s.DX, s.DY = 0, 0
}

// Move updates a pressed pointer's position and aspect-corrected delta.
// Moves of unknown or released pointers are ignored.
func (r *PointerRegistry) Move(id int32, px, py float32) {
	e, ok := r.byID[id]
	if !ok {
		return
	}
	p, s := r.mapper.Get(e)
	if !p.Down {
		return
	}

	x, y := r.texcoord(px, py)
	s.PrevX, s.PrevY = s.X, s.Y
	s.X, s.Y = x, y

	aspect := r.canvas.Aspect()
	s.DX = s.X - s.PrevX
	s.DY = s.Y - s.PrevY
	if aspect < 1 {
		s.DX *= aspect
	}
	if aspect > 1 {
		s.DY /= aspect
	}
	p.Moved = p.Moved || s.DX != 0 || s.DY != 0
}

// Up releases pointer id.
func (r *PointerRegistry) Up(id int32) {
	e, ok := r.byID[id]
	if !ok {
		return
	}
	p, _ := r.mapper.Get(e)
	p.Down = false
}

// Lookup returns copies of a pointer's components.
func (r *PointerRegistry) Lookup(id int32) (components.Pointer, components.Stroke, bool) {
	e, ok := r.byID[id]
	if !ok {
		return components.Pointer{}, components.Stroke{}, false
	}
	p, s := r.mapper.Get(e)
	return *p, *s, true
}

// Consume calls fn for every pointer with an owed impulse and clears its
// moved flag. Returns the number of pointers consumed.
func (r *PointerRegistry) Consume(fn func(p components.Pointer, s components.Stroke)) int {
	var owed []components.Pointer
	var strokes []components.Stroke

	query := r.filter.Query()
	for query.Next() {
		p, s := query.Get()
		if !p.Moved {
			continue
		}
		p.Moved = false
		owed = append(owed, *p)
		strokes = append(strokes, *s)
	}

	// Deposit outside the query, in id order for determinism
	order := make([]int, len(owed))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return owed[order[a]].ID < owed[order[b]].ID })
	for _, i := range order {
		fn(owed[i], strokes[i])
	}
	return len(owed)
}

// Entries returns one inspector entry per pointer, ordered by id.
func (r *PointerRegistry) Entries() []inspector.Entry {
	ids := make([]int32, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	entries := make([]inspector.Entry, 0, len(ids))
	for _, id := range ids {
		p, s := r.mapper.Get(r.byID[id])
		entries = append(entries, inspector.Entry{
			Title:      pointerTitle(id),
			Components: []any{*p, *s},
		})
	}
	return entries
}

func pointerTitle(id int32) string {
	if id == mousePointerID {
		return "mouse"
	}
	return fmt.Sprintf("touch %d", id)
}
