package simgrid

// dropBuffers is the SoA raindrop storage (spec.md §3 "Particle buffers").
// prevX/prevY hold the pre-integration position used for swept collision.
// Removal is O(1) swap-with-last; dropCount never exceeds maxDrops.
type dropBuffers struct {
	x, y         []float32
	prevX, prevY []float32
	velX, velY   []float32
	radius       []float32
	opacity      []float32
	count        int
	max          int
}

func newDropBuffers(max int) *dropBuffers {
	return &dropBuffers{
		x: make([]float32, max), y: make([]float32, max),
		prevX: make([]float32, max), prevY: make([]float32, max),
		velX: make([]float32, max), velY: make([]float32, max),
		radius: make([]float32, max), opacity: make([]float32, max),
		max: max,
	}
}

func (b *dropBuffers) spawn(x, y, velX, velY, radius float32) int {
	if b.count >= b.max {
		return -1
	}
	i := b.count
	b.x[i], b.y[i] = x, y
	b.prevX[i], b.prevY[i] = x, y
	b.velX[i], b.velY[i] = velX, velY
	b.radius[i] = radius
	b.opacity[i] = 1
	b.count++
	return i
}

// remove swaps index i with the last live element and shrinks count, so
// any in-flight iteration from high index to low index stays valid.
func (b *dropBuffers) remove(i int) {
	last := b.count - 1
	if i != last {
		b.x[i], b.y[i] = b.x[last], b.y[last]
		b.prevX[i], b.prevY[i] = b.prevX[last], b.prevY[last]
		b.velX[i], b.velY[i] = b.velX[last], b.velY[last]
		b.radius[i] = b.radius[last]
		b.opacity[i] = b.opacity[last]
	}
	b.count--
}

// splashBuffers is the visual-only splash particle storage (spec.md §3
// "Splash buffers"). Splashes never emit audio.
type splashBuffers struct {
	x, y       []float32
	velX, velY []float32
	life       []float32
	count      int
	max        int
}

func newSplashBuffers(max int) *splashBuffers {
	return &splashBuffers{
		x: make([]float32, max), y: make([]float32, max),
		velX: make([]float32, max), velY: make([]float32, max),
		life: make([]float32, max), max: max,
	}
}

func (b *splashBuffers) spawn(x, y, velX, velY, life float32) {
	if b.count >= b.max {
		return
	}
	i := b.count
	b.x[i], b.y[i] = x, y
	b.velX[i], b.velY[i] = velX, velY
	b.life[i] = life
	b.count++
}

func (b *splashBuffers) remove(i int) {
	last := b.count - 1
	if i != last {
		b.x[i], b.y[i] = b.x[last], b.y[last]
		b.velX[i], b.velY[i] = b.velX[last], b.velY[last]
		b.life[i] = b.life[last]
	}
	b.count--
}

// DropView is the renderer-facing read-only snapshot (spec.md §6).
type DropView struct {
	X, Y, PrevX, PrevY []float32
	Radius, Opacity    []float32
	Count              int
	Alpha              float32 // interpolation alpha in [0,1]
}

// SplashView is the renderer-facing read-only snapshot (spec.md §6).
type SplashView struct {
	X, Y  []float32
	Life  []float32
	Count int
}
