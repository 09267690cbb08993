package simgrid

import "math"

// resolveDropCollision performs the swept collision test for drop i after
// its position has been integrated this sub-tick. Returns true if the
// drop should be despawned (it either collided, went off-grid, or hit
// VOID) — spec.md §4.1 "Collision sweep".
func (s *Simulator) resolveDropCollision(i int) bool {
	x, y := s.drops.x[i], s.drops.y[i]
	px, py := s.drops.prevX[i], s.drops.prevY[i]

	cellX, cellY := int(x), int(y)
	prevCellX, prevCellY := int(px), int(py)

	reverse := s.params.reverseGravity.Load()

	// Off grid sides: silent despawn.
	if cellX < 0 || cellX >= s.grid.W {
		return true
	}
	// Off grid bottom (or top, in reverse): silent despawn.
	if reverse {
		if cellY < 0 {
			return true
		}
	} else {
		if cellY >= s.grid.H {
			return true
		}
	}
	if cellY < 0 || cellY >= s.grid.H {
		// off the opposite edge from the despawn edge above: still silent
		return true
	}

	rowStep := 1
	if cellY < prevCellY {
		rowStep = -1
	}
	rows := cellY - prevCellY
	if rows < 0 {
		rows = -rows
	}

	if rows <= 1 {
		return s.resolveAt(i, cellX, cellY, px, py, x, y)
	}

	// Scan each intermediate row, interpolating X linearly, stopping at
	// the first non-AIR cell (spec.md §4.1).
	dx := x - px
	dy := y - py
	for step := 1; step <= rows; step++ {
		yRow := prevCellY + rowStep*step
		var t float32
		if dy != 0 {
			t = (float32(yRow) - py) / dy
		}
		xAt := px + dx*t
		xi := int(xAt)
		if xi < 0 || xi >= s.grid.W {
			return true
		}
		if s.grid.At(xi, yRow) != CellAir {
			return s.resolveAt(i, xi, yRow, px, py, xAt, float32(yRow))
		}
	}
	return s.resolveAt(i, cellX, cellY, px, py, x, y)
}

// resolveAt handles the cell the sweep landed on: VOID, FLOOR, GLASS/WATER,
// or AIR (pass-through, no collision).
func (s *Simulator) resolveAt(i, cellX, cellY int, px, py, x, y float32) bool {
	radius := s.drops.radius[i]
	velX, velY := s.drops.velX[i], s.drops.velY[i]
	mass := radius * radius * radius
	speed := float32(math.Hypot(float64(velX), float64(velY)))

	cell := s.grid.At(cellX, cellY)

	isFloorHit := !s.params.reverseGravity.Load() &&
		cellX >= 0 && cellX < len(s.maps.floorMap) && cellY >= s.maps.floorMap[cellX] &&
		cell == CellAir

	switch {
	case cell == CellVoid:
		s.spawnSplashBurst(x, y, speed)
		return true

	case isFloorHit:
		s.emitCollision(x, y, velX, velY, radius, mass, SurfaceTop, "glass_window")
		s.spawnSplashBurst(x, y, speed)
		energy := clampF32(speed/400, 0, 0.6)
		momentum := clampF32(velX*0.01, -1, 1)
		s.grid.setWater(cellX, cellY-1, energy, momentum)
		return true

	case cell == CellGlass || cell == CellWater:
		surface, ok := resolveSide(px, py, cellX, cellY, velX, velY, s.params.slipThreshold.load())
		if !ok {
			return false // pass-through, no collision
		}
		s.emitCollision(x, y, velX, velY, radius, mass, surface, "glass_window")
		s.spawnSplashBurst(x, y, speed)

		energy := clampF32(speed/400, 0, 0.6)
		momentum := clampF32(velX*0.01, -1, 1)
		adjX, adjY := adjacentCell(cellX, cellY, surface)
		s.grid.setWater(adjX, adjY, energy, momentum)
		return true

	default:
		return false
	}
}

// resolveSide implements spec.md §4.1's "Collision-side resolution":
// entry direction + velocity orientation decide top/left/right, or no
// collision at all (pass-through on a shallow slip, or an edge case from
// below).
func resolveSide(px, py float32, cellX, cellY int, velX, velY, slipThreshold float32) (CollisionSurface, bool) {
	speed := float32(math.Hypot(float64(velX), float64(velY)))
	if speed == 0 {
		return SurfaceTop, true
	}

	enteredFromAbove := py < float32(cellY)+0.5
	if enteredFromAbove && velY > 0 {
		slip := float32(math.Abs(float64(velX))) / speed
		if slip > slipThreshold {
			return "", false
		}
		return SurfaceTop, true
	}

	enteredFromLeft := px < float32(cellX)
	enteredFromRight := px > float32(cellX)+1
	if enteredFromLeft && velX > 0 {
		return SurfaceLeft, true
	}
	if enteredFromRight && velX < 0 {
		return SurfaceRight, true
	}

	// Edge case from below: no collision.
	return "", false
}

func adjacentCell(cellX, cellY int, surface CollisionSurface) (int, int) {
	switch surface {
	case SurfaceLeft:
		return cellX - 1, cellY
	case SurfaceRight:
		return cellX + 1, cellY
	default:
		return cellX, cellY - 1
	}
}

// mergeDrops performs pairwise O(n^2) cohesion merging: two drops merge
// when their centers are closer than the sum of their radii plus 2
// (spec.md §4.1 "Merging").
func (s *Simulator) mergeDrops() {
	d := s.drops
	for i := 0; i < d.count; i++ {
		for j := i + 1; j < d.count; {
			dx := d.x[i] - d.x[j]
			dy := d.y[i] - d.y[j]
			distSq := dx*dx + dy*dy
			threshold := d.radius[i] + d.radius[j] + 2
			if distSq < threshold*threshold {
				mergeInto(d, i, j)
				d.remove(j)
				continue
			}
			j++
		}
	}
}

func mergeInto(d *dropBuffers, i, j int) {
	m1 := d.radius[i] * d.radius[i] * d.radius[i]
	m2 := d.radius[j] * d.radius[j] * d.radius[j]
	total := m1 + m2
	if total == 0 {
		return
	}
	d.x[i] = (d.x[i]*m1 + d.x[j]*m2) / total
	d.y[i] = (d.y[i]*m1 + d.y[j]*m2) / total
	d.velX[i] = (d.velX[i]*m1 + d.velX[j]*m2) / total
	d.velY[i] = (d.velY[i]*m1 + d.velY[j]*m2) / total
	d.radius[i] = float32(math.Cbrt(float64(total)))
}
