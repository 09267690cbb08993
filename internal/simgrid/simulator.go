package simgrid

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	rainTickRate   = 60.0
	puddleTickRate = 60.0

	rainDT   = float32(1.0 / rainTickRate)
	puddleDT = float32(1.0 / puddleTickRate)

	// screenScale converts logic-space units to the screen-space units
	// collision events are reported in (spec.md §4.1 "scales ... by x4").
	screenScale = 4.0

	// collisionThrottleS is the minimum simulation-time gap between emitted
	// collision events (spec.md §4.1 "Throttled globally to >= 8ms").
	collisionThrottleS = 0.008

	puddleSplashThrottlePerFrame = 20

	evaporationWarmupS = 15.0
	evaporationRampS   = 20.0
)

// geometryMaps is the subset of internal/geometry's output the simulator
// needs to spawn drops and drain puddles.
type geometryMaps struct {
	spawnMap        []int
	floorMap        []int
	displayFloorMap []int
}

// Simulator owns all particle and grid state, ticks rain and puddles via
// fixed-step accumulators, and emits collision events (spec.md §4.1).
type Simulator struct {
	grid   *Grid
	drops  *dropBuffers
	splash *splashBuffers
	params *Params

	maps geometryMaps

	rainAccumulator   float32
	puddleAccumulator float32
	spawnAccumulator  float32

	rng   *rand.Rand
	noise opensimplex.Noise

	onCollision CollisionFunc
	reusedEvent CollisionEvent

	lastCollisionEmitS float64
	simTimeS           float64

	puddleSplashThisFrame int

	// evaporation state
	evapElapsedS float64

	// for interpolated rendering
	renderAlpha float32
}

// NewSimulator allocates a simulator over a W×H grid with the given
// particle capacity.
func NewSimulator(gridW, gridH, maxDrops, maxSplashes int, seed int64) *Simulator {
	return &Simulator{
		grid:   NewGrid(gridW, gridH),
		drops:  newDropBuffers(maxDrops),
		splash: newSplashBuffers(maxSplashes),
		params: newParams(),
		maps: geometryMaps{
			spawnMap:        make([]int, gridW),
			floorMap:        make([]int, gridW),
			displayFloorMap: make([]int, gridW),
		},
		rng:   rand.New(rand.NewSource(seed)),
		noise: opensimplex.New(seed),
	}
}

// OnCollision registers the single collision callback (replaces any
// previous registration).
func (s *Simulator) OnCollision(fn CollisionFunc) { s.onCollision = fn }

// Drops returns a read-only view of the live drop buffers for the
// renderer (spec.md §6).
func (s *Simulator) Drops() DropView {
	return DropView{
		X: s.drops.x[:s.drops.count], Y: s.drops.y[:s.drops.count],
		PrevX: s.drops.prevX[:s.drops.count], PrevY: s.drops.prevY[:s.drops.count],
		Radius: s.drops.radius[:s.drops.count], Opacity: s.drops.opacity[:s.drops.count],
		Count: s.drops.count, Alpha: s.renderAlpha,
	}
}

// Splashes returns a read-only view of the live splash buffers.
func (s *Simulator) Splashes() SplashView {
	return SplashView{
		X: s.splash.x[:s.splash.count], Y: s.splash.y[:s.splash.count],
		Life: s.splash.life[:s.splash.count], Count: s.splash.count,
	}
}

// GridState returns a read-only grid view for the renderer.
func (s *Simulator) GridState() View {
	return View{
		Data: s.grid.cells, Depth: s.grid.depth,
		Width: s.grid.W, Height: s.grid.H,
		FloorMap: s.maps.floorMap, DisplayFloorMap: s.maps.displayFloorMap,
	}
}

// DropCount and PuddleCellCount feed the sheet/texture density mapping
// (spec.md §2 data flow: "simulator's particle count drives Sheet Layer
// density and Texture Layer intensity").
func (s *Simulator) DropCount() int { return s.drops.count }

func (s *Simulator) PuddleCellCount() int {
	n := 0
	for _, c := range s.grid.cells {
		if c == CellWater {
			n++
		}
	}
	return n
}

// Step integrates all accumulators by dt seconds. Fails silently on
// dt <= 0 and never blocks (spec.md §4.1).
func (s *Simulator) Step(dt float32) {
	if dt <= 0 {
		return
	}
	s.simTimeS += float64(dt)
	s.evapElapsedS += float64(dt)

	s.rainAccumulator += dt
	s.puddleAccumulator += dt
	rate := s.params.spawnRate.load()
	var spawnPeriod float32
	if rate > 0 {
		spawnPeriod = 1.0 / rate
	}
	s.spawnAccumulator += dt

	for s.rainAccumulator >= rainDT {
		s.stepRain(rainDT)
		s.rainAccumulator -= rainDT
	}
	for s.puddleAccumulator >= puddleDT {
		s.stepPuddle(puddleDT)
		s.puddleAccumulator -= puddleDT
	}
	if spawnPeriod > 0 {
		for s.spawnAccumulator >= spawnPeriod {
			s.spawnDrop()
			s.spawnAccumulator -= spawnPeriod
		}
	}

	s.integrateSplashes(dt)
}

func (s *Simulator) stepRain(dt float32) {
	s.puddleSplashThisFrame = 0
	s.integrateDrops(dt)
	s.mergeDrops()
}

// --- spawn ---

func (s *Simulator) spawnDrop() {
	w := s.grid.W
	if w == 0 {
		return
	}
	x := s.rng.Intn(w)

	wind := s.params.wind.load()
	turb := s.params.turbulence.load()
	reverse := s.params.reverseGravity.Load()

	// Windward-edge spawn probability rises with wind speed, up to 40%.
	windSpeed := float32(math.Abs(float64(wind)))
	windwardChance := clampF32(windSpeed/60.0, 0, 0.4)

	var sx, sy float32
	if s.rng.Float32() < windwardChance {
		sy = float32(s.rng.Intn(s.grid.H))
		if wind >= 0 {
			sx = 0
		} else {
			sx = float32(w - 1)
		}
	} else {
		var top int
		if reverse {
			top = s.maps.displayFloorMap[x]
		} else {
			top = s.maps.spawnMap[x]
		}
		if top < 0 {
			return
		}
		sx = float32(x)
		sy = float32(top)
	}

	velX := wind + (s.rng.Float32()*2-1)*turb/2
	vMag := 200 + s.rng.Float32()*150
	velY := vMag
	if reverse {
		velY = -vMag
	}

	rMin := s.params.dropMinRadius.load()
	rMax := s.params.dropMaxRadius.load()
	if rMax < rMin {
		rMax = rMin
	}
	radius := rMin + s.rng.Float32()*(rMax-rMin)

	s.drops.spawn(sx, sy, velX, velY, radius)
}

// --- integration ---

func (s *Simulator) integrateDrops(dt float32) {
	gravity := s.params.gravity.load()
	wind := s.params.wind.load()
	turb := s.params.turbulence.load()
	reverse := s.params.reverseGravity.Load()

	terminal := gravity * 0.5
	if terminal < 50 {
		terminal = 50
	}

	for i := 0; i < s.drops.count; {
		s.drops.prevX[i] = s.drops.x[i]
		s.drops.prevY[i] = s.drops.y[i]

		g := gravity
		if reverse {
			g = -g
		}
		s.drops.velY[i] += g * dt
		if reverse {
			if s.drops.velY[i] < -terminal {
				s.drops.velY[i] = -terminal
			}
		} else {
			if s.drops.velY[i] > terminal {
				s.drops.velY[i] = terminal
			}
		}

		tc := 0.3 * 60 * dt
		if tc > 1 {
			tc = 1
		}
		s.drops.velX[i] += (wind - s.drops.velX[i]) * tc

		if turb > 0 {
			n := float32(s.noise.Eval2(float64(s.drops.x[i])*0.01, float64(s.simTimeS)*0.5))
			s.drops.velX[i] += n * turb * dt * 10
		}

		s.drops.x[i] += s.drops.velX[i] * dt
		s.drops.y[i] += s.drops.velY[i] * dt

		if s.resolveDropCollision(i) {
			s.drops.remove(i)
			continue
		}
		i++
	}
}

func (s *Simulator) integrateSplashes(dt float32) {
	for i := 0; i < s.splash.count; {
		s.splash.x[i] += s.splash.velX[i] * dt
		s.splash.y[i] += s.splash.velY[i] * dt
		s.splash.velY[i] += 500 * dt
		s.splash.life[i] -= dt
		if s.splash.life[i] <= 0 {
			s.splash.remove(i)
			continue
		}
		i++
	}
}

// --- splash spawning ---

func (s *Simulator) spawnSplashBurst(x, y, speed float32) {
	scale := s.params.splashScale.load()
	n := 1 + s.rng.Intn(6)
	n = int(float32(n) * scale)
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		angle := s.rng.Float32() * 2 * math.Pi
		mag := (0.2 + s.rng.Float32()*0.6) * speed * 0.3
		vx := float32(math.Cos(float64(angle))) * mag
		vy := float32(math.Sin(float64(angle)))*mag - 80
		life := 0.2 + s.rng.Float32()*0.3
		s.splash.spawn(x, y, vx, vy, life)
	}
}

func (s *Simulator) spawnPuddleSplash(x, y int) {
	if s.puddleSplashThisFrame >= puddleSplashThrottlePerFrame {
		return
	}
	s.puddleSplashThisFrame++
	s.splash.spawn(float32(x), float32(y), (s.rng.Float32()*2-1)*20, -60, 0.15)
}

// --- collision emission throttle ---

func (s *Simulator) emitCollision(x, y, velX, velY, radius, mass float32, surface CollisionSurface, surfaceType string) {
	if s.onCollision == nil {
		return
	}
	if s.simTimeS-s.lastCollisionEmitS < collisionThrottleS {
		return
	}
	s.lastCollisionEmitS = s.simTimeS

	speed := float32(math.Hypot(float64(velX), float64(velY)))
	reported := speed
	if surface == SurfaceLeft || surface == SurfaceRight {
		ratio := float32(0.5)
		if speed > 0 {
			ratio = clampF32(float32(math.Abs(float64(velX)))/speed, 0.5, 1.0)
		}
		reported *= ratio
	}

	ev := &s.reusedEvent
	ev.Velocity = reported * screenScale
	ev.DropRadius = radius * screenScale
	ev.ImpactAngle = float32(math.Atan2(float64(velY), float64(velX)))
	ev.SurfaceType = surfaceType
	ev.Mass = mass
	ev.X = x * screenScale
	ev.Y = y * screenScale
	ev.CollisionSurface = surface

	s.onCollision(ev)
}
