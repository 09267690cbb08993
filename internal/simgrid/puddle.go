package simgrid

const (
	baseEnergy       = 0.05
	momentumDecay    = 0.959
	energyDecayIdle  = 0.922
	wallAdhesion     = 0.05
	settledAdhesion  = 0.25
	energeticAdhesion = 0.08
)

// stepPuddle runs one cellular-automaton tick over the puddle grid: reads
// the front buffers, writes the back buffers, then swaps (spec.md §4.1
// "Puddle cellular automaton").
func (s *Simulator) stepPuddle(dt float32) {
	g := s.grid
	for i := range g.processedThisFrame {
		g.processedThisFrame[i] = false
	}
	copy(g.cellsBk, g.cells)
	copy(g.energyBk, g.energy)
	copy(g.momentumXBk, g.momentumX)
	copy(g.depthBk, g.depth)

	for row := g.H - 1; row >= 0; row-- {
		leftToRight := row%2 == 0
		if leftToRight {
			for x := 0; x < g.W; x++ {
				s.stepCell(x, row)
			}
		} else {
			for x := g.W - 1; x >= 0; x-- {
				s.stepCell(x, row)
			}
		}
	}

	s.stepEvaporation(dt)

	g.cells, g.cellsBk = g.cellsBk, g.cells
	g.energy, g.energyBk = g.energyBk, g.energy
	g.momentumX, g.momentumXBk = g.momentumXBk, g.momentumX
	g.depth, g.depthBk = g.depthBk, g.depth
}

// stepCell advances one WATER cell's CA rule, reading the front buffer
// and writing the back buffer.
func (s *Simulator) stepCell(x, y int) {
	g := s.grid
	i := g.idx(x, y)
	if g.cells[i] != CellWater || g.processedThisFrame[i] {
		return
	}

	energy := g.energy[i]
	if baseEnergy > energy {
		energy = baseEnergy
	} else {
		energy = g.energy[i]
	}
	if energy < baseEnergy {
		energy = baseEnergy
	}

	onFloor := !s.cellIsAir(x, y+1)
	besideWall := s.cellIsSolidWall(x-1, y) || s.cellIsSolidWall(x+1, y)

	if onFloor {
		adhesion := energeticAdhesion
		if energy < 0.2 {
			adhesion = settledAdhesion
		}
		if s.rng.Float32() < adhesion {
			s.decayStill(x, y, i)
			return
		}
	} else if besideWall {
		if s.rng.Float32() < wallAdhesion {
			s.decayStill(x, y, i)
			return
		}
	}

	momentum := g.momentumX[i] * momentumDecay

	moved := false

	// Bounce: energetic cells may briefly rise before falling back.
	if energy > 0.4 && s.rng.Float32() < energy*0.5 {
		if s.tryMove(x, y, x, y-1) {
			s.finishMove(x, y-1, energy*0.7, momentum, i)
			moved = true
		} else {
			dir := s.sign(momentum)
			if dir == 0 {
				dir = s.randomSign()
			}
			if s.tryMove(x, y, x+dir, y) {
				s.finishMove(x+dir, y, energy*0.6, momentum, i)
				moved = true
			} else if energy > 0.5 {
				s.spawnPuddleSplash(x, y)
			}
		}
	}

	if !moved && absF32(momentum) > 0.15 && energy > 0.10 {
		dir := s.sign(momentum)
		if dir != 0 && s.tryMove(x, y, x+dir, y) {
			s.finishMove(x+dir, y, energy*0.9, momentum, i)
			moved = true
		} else if absF32(momentum) > 0.4 && energy > 0.3 {
			if s.tryMove(x, y, x, y-1) {
				s.finishMove(x, y-1, energy*0.8, momentum*0.5, i)
				moved = true
			}
		}
	}

	if !moved {
		gravityScale := s.params.gravity.load() / 420
		massBonus := s.nearbyWaterBonus(x, y)
		fall := int((2+energy*6)*gravityScale) + massBonus
		if fall > 12 {
			fall = 12
		}
		if fall < 1 {
			fall = 1
		}
		for d := 1; d <= fall; d++ {
			if s.tryMove(x, y, x, y+d) {
				s.finishMove(x, y+d, energy, momentum, i)
				moved = true
				break
			}
		}
	}

	if !moved {
		firstDir := s.randomSign()
		for _, dir := range [2]int{firstDir, -firstDir} {
			if s.tryMove(x, y, x+dir, y+1) {
				s.finishMove(x+dir, y+1, energy*0.95, momentum+float32(dir)*0.2, i)
				moved = true
				break
			}
		}
	}

	if !moved {
		depth := g.depth[i]
		belowIdx := -1
		if g.inBounds(x, y+1) {
			belowIdx = g.idx(x, y+1)
		}
		if onFloor && belowIdx >= 0 && g.cells[belowIdx] == CellWater && g.depth[belowIdx] < MaxWaterDepth {
			transfer := uint8(float32(depth) * 0.3)
			if transfer > 0 && g.depthBk[i] >= transfer {
				g.depthBk[i] -= transfer
				if g.depthBk[belowIdx]+transfer > MaxWaterDepth {
					transfer = MaxWaterDepth - g.depthBk[belowIdx]
				}
				g.depthBk[belowIdx] += transfer
				moved = true
			}
		} else {
			spreadChance := float32(0.12)
			if onFloor {
				spreadChance = 0.04
			}
			spreadChance += energy * 0.05
			if s.rng.Float32() < spreadChance {
				dist := 1 + s.rng.Intn(3)
				dir := s.randomSign()
				if s.tryMove(x, y, x+dir*dist, y) {
					s.finishMove(x+dir*dist, y, energy*0.7, momentum, i)
					moved = true
				}
			}
		}
	}

	if onFloor && x < len(s.maps.floorMap) && y >= s.maps.floorMap[x] {
		if s.rng.Float32() < 0.05 {
			g.cellsBk[i] = CellAir
			g.energyBk[i] = 0
			g.momentumXBk[i] = 0
			g.depthBk[i] = 0
			g.processedThisFrame[i] = true
			return
		}
	}

	if !moved {
		s.decayStill(x, y, i)
	}
}

func (s *Simulator) decayStill(x, y, i int) {
	g := s.grid
	newEnergy := g.energy[i] * energyDecayIdle
	g.energyBk[i] = newEnergy
	g.momentumXBk[i] = g.momentumX[i] * momentumDecay
	if newEnergy > 0.6 {
		s.spawnPuddleSplash(x, y)
	}
	g.processedThisFrame[i] = true
}

// tryMove reports whether the target cell is empty (AIR, not VOID) in the
// back buffer so a move doesn't collide with a cell already placed this
// tick.
func (s *Simulator) tryMove(fromX, fromY, toX, toY int) bool {
	g := s.grid
	if !g.inBounds(toX, toY) {
		return false
	}
	ti := g.idx(toX, toY)
	return g.cellsBk[ti] == CellAir
}

func (s *Simulator) finishMove(toX, toY int, energy, momentum float32, fromIdx int) {
	g := s.grid
	ti := g.idx(toX, toY)
	g.cellsBk[ti] = CellWater
	g.energyBk[ti] = clampF32(energy, 0, 1)
	g.momentumXBk[ti] = clampF32(momentum, -1, 1)
	if g.depthBk[ti] < 1 {
		g.depthBk[ti] = 1
	}
	g.cellsBk[fromIdx] = CellAir
	g.energyBk[fromIdx] = 0
	g.momentumXBk[fromIdx] = 0
	g.depthBk[fromIdx] = 0
	g.processedThisFrame[fromIdx] = true
	g.processedThisFrame[ti] = true
}

func (s *Simulator) cellIsAir(x, y int) bool {
	return s.grid.At(x, y) == CellAir
}

func (s *Simulator) cellIsSolidWall(x, y int) bool {
	c := s.grid.At(x, y)
	return c == CellGlass || c == CellVoid
}

func (s *Simulator) nearbyWaterBonus(x, y int) int {
	count := 0
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if s.grid.At(x+dx, y+dy) == CellWater {
				count++
			}
		}
	}
	if count > 4 {
		count = 4
	}
	return count
}

func (s *Simulator) sign(v float32) int {
	switch {
	case v > 0.001:
		return 1
	case v < -0.001:
		return -1
	default:
		return 0
	}
}

func (s *Simulator) randomSign() int {
	if s.rng.Float32() < 0.5 {
		return -1
	}
	return 1
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// stepEvaporation drains water near the display-floor band after a 15s
// warmup and a 20s linear ramp (spec.md §4.1 "Evaporation").
func (s *Simulator) stepEvaporation(dt float32) {
	if s.evapElapsedS < evaporationWarmupS {
		return
	}
	ramp := (s.evapElapsedS - evaporationWarmupS) / evaporationRampS
	if ramp > 1 {
		ramp = 1
	}

	rate := s.params.evaporation.load()
	spawnRate := s.params.spawnRate.load()
	rateFactor := rate * (0.5 + clampF32(spawnRate/40, 0, 2)*0.5)

	g := s.grid
	for x := 0; x < g.W && x < len(s.maps.displayFloorMap); x++ {
		floor := s.maps.displayFloorMap[x]
		for y := floor - 5; y < floor; y++ {
			if !g.inBounds(x, y) {
				continue
			}
			i := g.idx(x, y)
			if g.cellsBk[i] != CellWater {
				continue
			}
			p := 0.02 * float32(ramp) * rateFactor
			if p > 0.02 {
				p = 0.02
			}
			if s.rng.Float32() >= p {
				continue
			}
			if g.depthBk[i] > 1 {
				g.depthBk[i]--
			} else {
				g.cellsBk[i] = CellAir
				g.energyBk[i] = 0
				g.momentumXBk[i] = 0
				g.depthBk[i] = 0
			}
		}
	}
}
