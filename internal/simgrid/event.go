package simgrid

// CollisionSurface is which face of a cell a drop struck (spec.md §3).
type CollisionSurface string

const (
	SurfaceTop   CollisionSurface = "top"
	SurfaceLeft  CollisionSurface = "left"
	SurfaceRight CollisionSurface = "right"
)

// CollisionEvent mirrors spec.md §3 exactly. The struct is reused
// zero-allocation: Simulator keeps one instance and mutates it in place
// before invoking the registered callback, matching spec.md's "the struct
// is reused zero-allocation" note.
type CollisionEvent struct {
	Velocity         float32 // screen px/s
	DropRadius       float32 // screen px
	ImpactAngle      float32 // radians
	SurfaceType      string
	Mass             float32
	X, Y             float32
	CollisionSurface CollisionSurface
}

// CollisionFunc is the single registered collision callback (spec.md
// §4.1 "onCollision"). It is invoked synchronously during Step's rain
// substep and must not perform unbounded work (spec.md §5).
type CollisionFunc func(ev *CollisionEvent)
