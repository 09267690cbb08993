// Package orchestrator wires the physics simulator, collision mapper,
// material registry, and every audio module into the fixed Rain/Wind/
// Thunder/Matrix bus topology (spec.md §2 "Architecture overview"). It
// owns the one place config changes fan out to every subsystem and the
// one place a simgrid.CollisionEvent turns into triggered voices.
package orchestrator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/audio/bubble"
	"github.com/rainydesk/engine/internal/audio/bus"
	"github.com/rainydesk/engine/internal/audio/impact"
	"github.com/rainydesk/engine/internal/audio/matrix"
	"github.com/rainydesk/engine/internal/audio/sheet"
	"github.com/rainydesk/engine/internal/audio/texture"
	"github.com/rainydesk/engine/internal/audio/thunder"
	"github.com/rainydesk/engine/internal/audio/wind"
	"github.com/rainydesk/engine/internal/config"
	"github.com/rainydesk/engine/internal/geometry"
	"github.com/rainydesk/engine/internal/mapper"
	"github.com/rainydesk/engine/internal/material"
	"github.com/rainydesk/engine/internal/simgrid"
	"github.com/rainydesk/engine/internal/telemetry"
)

// Assets bundles the host-decoded resources the engine has no business
// knowing the directory layout of (spec.md §2 "asset loading is a host
// concern").
type Assets struct {
	TextureLoader   texture.AssetLoader
	TextureRegistry texture.SurfaceRegistry

	ThunderIRLoader  thunder.IRLoader
	ThunderManifest  thunder.IRManifest

	MatrixDroneA beep.Streamer
	MatrixDroneB beep.Streamer
}

// Orchestrator is the engine's single root object: one Simulator, one
// Registry, every audio module, and the bus Mixer they all feed.
type Orchestrator struct {
	mu sync.Mutex

	cfg config.Config

	sim       *simgrid.Simulator
	materials *material.Registry

	impactPool *impact.Pool
	bubblePool *bubble.Pool
	sheets     []*sheet.Layer
	textureLyr *texture.Layer
	winds      []*wind.Module
	thunderM   *thunder.Module
	matrixM    *matrix.Module

	rainMix *beep.Mixer
	windMix *beep.Mixer

	mixer *bus.Mixer

	vd         geometry.VirtualDesktop
	gridCellPx int

	rng *rand.Rand

	duckGen    uint64
	rainBaseDb float64
	windBaseDb float64

	collector *telemetry.Collector
}

// SetCollector attaches a stats collector; onCollision, the duck hook, and
// Tick feed it events for the lifetime of this Orchestrator. Pass nil to
// detach (the default state, a harmless no-op on every record call).
func (o *Orchestrator) SetCollector(c *telemetry.Collector) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.collector = c
}

// New builds a fully wired Orchestrator sized to initialDisplays (the
// simgrid grid is fixed at construction; see SetDisplays).
func New(cfg config.Config, assets Assets, initialDisplays []geometry.DisplayInfo, seed int64) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		materials:  material.NewRegistry(cfg.Materials),
		gridCellPx: cfg.Physics.GridCellPx,
		rng:        rand.New(rand.NewSource(seed)),
	}
	if o.gridCellPx <= 0 {
		o.gridCellPx = 4
	}

	o.vd = geometry.BuildVirtualDesktop(initialDisplays, 0)
	gridW, gridH := o.gridDims()

	o.sim = simgrid.NewSimulator(gridW, gridH, cfg.Physics.MaxDrops, cfg.Physics.MaxSplashes, seed)
	o.sim.OnCollision(o.onCollision)
	o.applyPhysics(cfg.Physics)

	sampleRate := float64(cfg.SampleRate)

	o.impactPool = impact.NewPool(impactConfigFrom(cfg.Impacts.Impact), sampleRate, seed+1)
	o.bubblePool = bubble.NewPool(bubbleConfigFrom(cfg.Impacts.Bubble), sampleRate, seed+2)

	o.sheets = make([]*sheet.Layer, len(cfg.Sheets))
	for i, sc := range cfg.Sheets {
		o.sheets[i] = sheet.New(sheetConfigFrom(sc), sampleRate, seed+int64(i)*7+3)
	}

	o.textureLyr = texture.New(assets.TextureRegistry, assets.TextureLoader, sampleRate)
	if cfg.Texture.Enabled {
		o.textureLyr.SetSurface(cfg.Texture.SurfaceID)
		o.textureLyr.SetIntensity(1)
	}

	o.winds = make([]*wind.Module, len(cfg.Winds))
	for i, wc := range cfg.Winds {
		o.winds[i] = wind.New(windConfigFrom(wc), sampleRate, seed+int64(i)*11+101)
	}

	o.thunderM = thunder.NewModule(thunderConfigFrom(cfg.Thunder), assets.ThunderManifest, assets.ThunderIRLoader, sampleRate, seed+5, o.applyDuck)
	o.thunderM.StartAuto()

	o.matrixM = matrix.NewModule(matrixConfigFrom(cfg.Matrix), assets.MatrixDroneA, assets.MatrixDroneB, sampleRate, seed+6)
	if cfg.Matrix.Enabled {
		o.matrixM.Start()
	}

	o.rainMix = &beep.Mixer{}
	o.rainMix.Add(o.impactPool, o.bubblePool)
	for _, s := range o.sheets {
		o.rainMix.Add(s)
	}
	o.rainMix.Add(o.textureLyr)

	o.windMix = &beep.Mixer{}
	for _, w := range o.winds {
		o.windMix.Add(w)
	}

	rainBus := bus.New("rain", o.rainMix, busConfigFrom(cfg.Master.Rain), sampleRate)
	windBus := bus.New("wind", o.windMix, busConfigFrom(cfg.Master.Wind), sampleRate)
	thunderBus := bus.New("thunder", o.thunderM, busConfigFrom(cfg.Master.Thunder), sampleRate)
	matrixBus := bus.New("matrix", o.matrixM, busConfigFrom(cfg.Master.Matrix), sampleRate)

	o.rainBaseDb = cfg.Master.Rain.GainDb
	o.windBaseDb = cfg.Master.Wind.GainDb

	o.mixer = bus.NewMixer(rainBus, windBus, thunderBus, matrixBus, masterConfigFrom(cfg.Master, cfg.Sfx), sampleRate)

	return o
}

func (o *Orchestrator) gridDims() (int, int) {
	w := o.vd.Width / o.gridCellPx
	h := o.vd.Height / o.gridCellPx
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// SetConfig applies a full config swap, fanning every field out to its
// owning subsystem (spec.md §5 "config changes are atomic with respect
// to the next tick").
func (o *Orchestrator) SetConfig(cfg config.Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = cfg

	o.materials = material.NewRegistry(cfg.Materials)
	o.applyPhysics(cfg.Physics)

	o.impactPool.SetConfig(impactConfigFrom(cfg.Impacts.Impact))
	o.bubblePool.SetConfig(bubbleConfigFrom(cfg.Impacts.Bubble))

	for i, sc := range cfg.Sheets {
		if i < len(o.sheets) {
			o.sheets[i].SetConfig(sheetConfigFrom(sc))
		}
	}

	if cfg.Texture.Enabled {
		o.textureLyr.SetSurface(cfg.Texture.SurfaceID)
	}

	for i, wc := range cfg.Winds {
		if i < len(o.winds) {
			o.winds[i].SetConfig(windConfigFrom(wc))
		}
	}

	o.thunderM.SetConfig(thunderConfigFrom(cfg.Thunder))
	o.matrixM.SetConfig(matrixConfigFrom(cfg.Matrix))
	if cfg.Matrix.Enabled {
		o.matrixM.Start()
	}

	o.rainBaseDb = cfg.Master.Rain.GainDb
	o.windBaseDb = cfg.Master.Wind.GainDb

	o.mixer.Bus("rain").SetConfig(busConfigFrom(cfg.Master.Rain))
	o.mixer.Bus("wind").SetConfig(busConfigFrom(cfg.Master.Wind))
	o.mixer.Bus("thunder").SetConfig(busConfigFrom(cfg.Master.Thunder))
	o.mixer.Bus("matrix").SetConfig(busConfigFrom(cfg.Master.Matrix))
	o.mixer.SetMasterConfig(masterConfigFrom(cfg.Master, cfg.Sfx))
}

// applyPhysics fans a PhysicsConfig out to every Simulator setter
// (spec.md §4.1).
func (o *Orchestrator) applyPhysics(p config.PhysicsConfig) {
	o.sim.SetIntensity(float32(p.Intensity))
	o.sim.SetWind(float32(p.Wind))
	o.sim.SetGravity(float32(p.Gravity))
	o.sim.SetSplashScale(float32(p.SplashScale))
	o.sim.SetTurbulence(float32(p.Turbulence))
	o.sim.SetEvaporationRate(float32(p.EvaporationRate))
	o.sim.SetDropMaxRadius(float32(p.DropMaxRadius))
	o.sim.SetDropMinRadius(float32(p.DropMinRadius))
	o.sim.SetReverseGravity(p.ReverseGravity)
	o.sim.SetSlipThreshold(float32(p.SlipThreshold))
	o.sim.SetSpawnRate(float32(p.SpawnRate))
}

// SetDisplays rebuilds the virtual desktop and window zones. The grid
// itself is sized once at construction (simgrid.Simulator has no resize
// operation); a display reconfiguration whose bounding box no longer
// matches the grid's cell count is accepted but silently ignored by
// Simulator.UpdateWindowZones (documented in DESIGN.md as a deliberate
// Open Question decision, not a bug).
func (o *Orchestrator) SetDisplays(displays []geometry.DisplayInfo, primaryIndex int, zones []geometry.WindowZone) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.vd = geometry.BuildVirtualDesktop(displays, primaryIndex)
	voidMask := geometry.VoidMask(o.vd)
	maps := geometry.BuildMaps(o.vd, voidMask, zones)

	cellPx := o.gridCellPx
	gridVoidMask := downscaleMask(voidMask, o.vd.Width, o.vd.Height, cellPx)

	rects := make([]simgrid.WindowRect, len(zones))
	for i, z := range zones {
		rects[i] = simgrid.WindowRect{
			X:        int(z.X) / cellPx,
			Y:        int(z.Y) / cellPx,
			W:        int(z.Width) / cellPx,
			H:        int(z.Height) / cellPx,
			Material: z.Material,
			Kind:     simgrid.ZoneKind(z.Kind),
		}
	}

	o.sim.UpdateWindowZones(gridVoidMask, rects, downscaleCols(maps.SpawnMap, cellPx), downscaleCols(maps.FloorMap, cellPx), downscaleCols(maps.DisplayFloorMap, cellPx))
}

// downscaleMask rebins a pixel-resolution void mask to the grid's cell
// resolution: a grid cell is void only if every pixel it covers is void.
func downscaleMask(mask []bool, w, h, cellPx int) []bool {
	gw, gh := w/cellPx, h/cellPx
	if gw < 1 {
		gw = 1
	}
	if gh < 1 {
		gh = 1
	}
	out := make([]bool, gw*gh)
	for gy := 0; gy < gh; gy++ {
		for gx := 0; gx < gw; gx++ {
			allVoid := true
		pixels:
			for py := gy * cellPx; py < (gy+1)*cellPx && py < h; py++ {
				for px := gx * cellPx; px < (gx+1)*cellPx && px < w; px++ {
					if !mask[py*w+px] {
						allVoid = false
						break pixels
					}
				}
			}
			out[gy*gw+gx] = allVoid
		}
	}
	return out
}

func downscaleCols(cols []int, cellPx int) []int {
	gw := len(cols) / cellPx
	if gw < 1 {
		gw = 1
	}
	out := make([]int, gw)
	for gx := range out {
		px := gx * cellPx
		if px >= len(cols) {
			px = len(cols) - 1
		}
		v := cols[px]
		if v < 0 {
			out[gx] = -1
		} else {
			out[gx] = v / cellPx
		}
	}
	return out
}

// Tick steps the physics simulation by dt seconds and resyncs the sheet/
// texture density layers, matching spec.md §2's data flow ("simulator's
// particle count drives Sheet Layer density and Texture Layer
// intensity"). Called from the host's frame/update loop, independent of
// the audio-rate Stream call beep's output device drives.
// Step synchronously invokes the registered collision callback (onCollision
// below), which itself locks o.mu — Step must run outside that lock or a
// tick with any collision in it deadlocks against its own goroutine.
func (o *Orchestrator) Tick(dt float64) {
	o.sim.Step(float32(dt))

	o.mu.Lock()
	defer o.mu.Unlock()
	o.syncDensity()
}

func (o *Orchestrator) syncDensity() {
	drops := o.sim.DropCount()
	for _, s := range o.sheets {
		s.SetParticleCount(drops)
	}

	puddleCells := o.sim.PuddleCellCount()
	if o.collector != nil {
		o.collector.RecordDensitySample(drops, puddleCells)
	}

	if !o.cfg.Texture.Enabled || o.cfg.Texture.MaxPuddleCells <= 0 {
		return
	}
	ratio := float64(puddleCells) / float64(o.cfg.Texture.MaxPuddleCells)
	if ratio > 1 {
		ratio = 1
	}
	intensity := int(ratio * 99)
	if intensity < 1 {
		intensity = 1
	}
	o.textureLyr.SetIntensity(intensity + 1)
}

// Stream renders one master-output audio block.
func (o *Orchestrator) Stream(samples [][2]float64) (int, bool) {
	return o.mixer.Stream(samples)
}

func (o *Orchestrator) Err() error { return o.mixer.Err() }

// applyDuck is the thunder sidechain hook (spec.md §4.8 "distance-
// dependent ducking"): it ramps the rain and wind bus gains down by
// amount*duckRangeDb over attack seconds, then straight back over
// release seconds with no hold. A new strike's duck call supersedes any ramp still in
// flight via the generation counter.
const duckRangeDb = 18.0

func (o *Orchestrator) applyDuck(amount, attack, release float64) {
	o.mu.Lock()
	o.duckGen++
	gen := o.duckGen
	rainBase, windBase := o.rainBaseDb, o.windBaseDb
	if o.collector != nil {
		o.collector.RecordThunderStrike()
	}
	o.mu.Unlock()

	if amount <= 0 {
		return
	}
	if amount > 1 {
		amount = 1
	}
	dropDb := amount * duckRangeDb

	go o.runDuckRamp(gen, rainBase, windBase, dropDb, attack, release)
}

func (o *Orchestrator) runDuckRamp(gen uint64, rainBase, windBase, dropDb, attackS, releaseS float64) {
	const steps = 20
	if attackS <= 0 {
		attackS = 0.01
	}
	if releaseS <= 0 {
		releaseS = 0.5
	}

	step := func(frac float64) bool {
		o.mu.Lock()
		if o.duckGen != gen {
			o.mu.Unlock()
			return false
		}
		rainCfg := o.cfg.Master.Rain
		windCfg := o.cfg.Master.Wind
		rainCfg.GainDb = rainBase - dropDb*frac
		windCfg.GainDb = windBase - dropDb*frac
		o.mixer.Bus("rain").SetConfig(busConfigFrom(rainCfg))
		o.mixer.Bus("wind").SetConfig(busConfigFrom(windCfg))
		o.mu.Unlock()
		return true
	}

	for i := 1; i <= steps; i++ {
		if !step(float64(i) / steps) {
			return
		}
		time.Sleep(time.Duration(attackS / steps * float64(time.Second)))
	}
	for i := steps - 1; i >= 0; i-- {
		if !step(float64(i) / steps) {
			return
		}
		time.Sleep(time.Duration(releaseS / steps * float64(time.Second)))
	}
}

// onCollision is the simgrid.CollisionFunc registered at construction.
// It maps the collision to synthesis parameters via the pure mapper,
// dispatches impact/bubble triggers and the matrix on-beat collision
// hook, computing a stereo pan position from the event's screen-space X.
func (o *Orchestrator) onCollision(ev *simgrid.CollisionEvent) {
	o.mu.Lock()
	matID := ev.SurfaceType
	if matID == "" {
		matID = o.cfg.Impacts.MaterialID
	}
	mat := o.materials.Get(matID)
	phys := physicsFrom(o.cfg.Impacts.Physics)
	width := float64(o.vd.Width)
	o.mu.Unlock()

	mEvent := mapper.Event{
		Velocity:    float64(ev.Velocity),
		DropRadius:  float64(ev.DropRadius),
		ImpactAngle: float64(ev.ImpactAngle),
		Mass:        float64(ev.Mass),
	}
	params := mapper.Map(mEvent, mat, phys, o.rng)

	pan := float32(0)
	if width > 0 {
		pan = float32(2*float64(ev.X)/width - 1)
		if pan < -1 {
			pan = -1
		}
		if pan > 1 {
			pan = 1
		}
	}

	o.impactPool.Trigger(params, pan)
	o.bubblePool.Trigger(params.TriggerBubble, params.FrequencyHz, params.DecayS)

	beat := o.matrixM.TriggerCollision()

	o.mu.Lock()
	if o.collector != nil {
		o.collector.RecordCollision(mEvent.Velocity)
		if params.TriggerBubble {
			o.collector.RecordBubbleTrigger()
		}
		if beat {
			o.collector.RecordMatrixBeat()
		}
	}
	o.mu.Unlock()
}
