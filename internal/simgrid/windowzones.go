package simgrid

// ZoneKind mirrors geometry.ZoneKind without importing the geometry
// package, keeping simgrid decoupled from host geometry plumbing (the
// orchestrator translates geometry.WindowZone into these).
type ZoneKind int

const (
	ZoneNormal ZoneKind = iota
	ZoneVoid
	ZoneSpawnBlock
)

// WindowRect is a window rectangle in grid coordinates.
type WindowRect struct {
	X, Y, W, H int
	Material   string
	Kind       ZoneKind
}

// UpdateWindowZones non-destructively repaints the grid from a fresh set
// of window rectangles plus the static void mask, displacing any water
// trapped inside a newly-painted window (spec.md §4.1 "Window update
// algorithm"). Calling it twice with the same input is idempotent (spec.md
// §8 round-trip property).
func (s *Simulator) UpdateWindowZones(voidMask []bool, zones []WindowRect, spawnMap, floorMap, displayFloorMap []int) {
	g := s.grid
	if len(voidMask) != len(g.cellsBk) {
		return
	}

	target := g.cellsBk // reuse the back buffer as scratch
	for i := range target {
		target[i] = CellAir
	}
	for i, isVoid := range voidMask {
		if isVoid {
			target[i] = CellVoid
		}
	}

	materialAt := make([]string, len(target))
	for _, z := range zones {
		x0, x1 := clampInt(z.X, 0, g.W), clampInt(z.X+z.W, 0, g.W)
		y0, y1 := clampInt(z.Y, 0, g.H), clampInt(z.Y+z.H, 0, g.H)
		switch z.Kind {
		case ZoneNormal:
			for y := y0; y < y1; y++ {
				row := y * g.W
				for x := x0; x < x1; x++ {
					if target[row+x] != CellVoid {
						target[row+x] = CellGlass
						materialAt[row+x] = z.Material
					}
				}
			}
		case ZoneVoid:
			for y := y0; y < y1; y++ {
				row := y * g.W
				for x := x0; x < x1; x++ {
					target[row+x] = CellVoid
				}
			}
		case ZoneSpawnBlock:
			// does not paint; spawnMap is edited by the caller via the
			// geometry package's BuildMaps, not here.
		}
	}

	type displaced struct{ x, y int }
	var queue []displaced

	for i, c := range g.cells {
		if c != CellWater {
			continue
		}
		x, y := i%g.W, i/g.W
		if target[i] == CellGlass || target[i] == CellVoid {
			queue = append(queue, displaced{x, y})
		} else {
			target[i] = CellWater
		}
	}

	// Commit target to front grid.
	copy(g.cells, target)
	// Carry depth/energy/momentum for surviving WATER cells; reset the rest.
	for i, c := range g.cells {
		if c != CellWater {
			g.energy[i] = 0
			g.momentumX[i] = 0
			g.depth[i] = 0
		}
	}

	s.maps.spawnMap = append([]int(nil), spawnMap...)
	s.maps.floorMap = append([]int(nil), floorMap...)
	s.maps.displayFloorMap = append([]int(nil), displayFloorMap...)

	for _, d := range queue {
		s.displaceWater(d.x, d.y)
	}
}

// displaceWater relocates a drop of water that a newly-painted window
// trapped: expanding rings to radius 16 in all four directions, falling
// back to the nearest grid-edge AIR cell, then energising the nearest
// WATER cell — never destroying it (spec.md §4.1 step 4).
func (s *Simulator) displaceWater(x, y int) {
	g := s.grid
	const maxRadius = 16
	for r := 1; r <= maxRadius; r++ {
		candidates := [][2]int{
			{x + r, y}, {x - r, y}, {x, y + r}, {x, y - r},
		}
		for _, c := range candidates {
			if g.inBounds(c[0], c[1]) && g.At(c[0], c[1]) == CellAir {
				g.setWater(c[0], c[1], 0.55, 0)
				g.depth[g.idx(c[0], c[1])] = 1
				return
			}
		}
	}

	// Fallback: nearest grid-edge AIR cell.
	best, bestDist := -1, -1
	for i, c := range g.cells {
		if c != CellAir {
			continue
		}
		cx, cy := i%g.W, i/g.W
		if cx != 0 && cx != g.W-1 && cy != 0 && cy != g.H-1 {
			continue
		}
		d := abs(cx-x) + abs(cy-y)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		cx, cy := best%g.W, best/g.W
		g.setWater(cx, cy, 0.55, 0)
		return
	}

	// Nowhere to go: energise the nearest existing WATER cell instead of
	// destroying this droplet's energy.
	bestW, bestWDist := -1, -1
	for i, c := range g.cells {
		if c != CellWater {
			continue
		}
		cx, cy := i%g.W, i/g.W
		d := abs(cx-x) + abs(cy-y)
		if bestW == -1 || d < bestWDist {
			bestW, bestWDist = i, d
		}
	}
	if bestW >= 0 {
		g.energy[bestW] = clampF32(g.energy[bestW]+0.55, 0, 1)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
