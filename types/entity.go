package types

import "time"

// Entity carries creation and modification timestamps.
// Embed it in mutable values such as drafts.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates an Entity stamped with t (UTC).
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{CreatedAt: t, UpdatedAt: t}
}

// Touch records a modification.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Modified reports whether the entity changed after it was created.
func (e Entity) Modified() bool {
	return e.UpdatedAt.After(e.CreatedAt)
}
