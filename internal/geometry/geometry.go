// Package geometry ingests host-provided monitor and window rectangles and
// normalises them into a virtual desktop plus the grid-aligned spawn,
// floor, and void maps the simulator needs (spec.md §2 "Geometry Ingest",
// §4.1 "updateWindowZones").
package geometry

import "math"

// DisplayInfo is a host-provided monitor rectangle (spec.md §6).
type DisplayInfo struct {
	ID           int
	X, Y         float64
	Width        float64
	Height       float64
	ScaleFactor  float64
}

// ZoneKind tags a WindowZone's effect on the grid.
type ZoneKind int

const (
	// ZoneNormal paints GLASS and is a collidable surface.
	ZoneNormal ZoneKind = iota
	// ZoneVoid paints VOID and blocks spawn above it.
	ZoneVoid
	// ZoneSpawnBlock edits spawnMap only, paints nothing.
	ZoneSpawnBlock
)

// WindowZone is a host-provided window rectangle in virtual-desktop
// screen coordinates (spec.md §6).
type WindowZone struct {
	X, Y          float64
	Width, Height float64
	Title         string
	Material      string
	IsMaximized   bool
	Kind          ZoneKind
}

// Monitor is a normalised display rectangle inside the virtual desktop.
type Monitor struct {
	X, Y          int
	Width, Height int
}

// VirtualDesktop is the normalised screen-coordinate space the simulator
// grid is rasterised into.
type VirtualDesktop struct {
	OriginX, OriginY int
	Width, Height    int
	Monitors         []Monitor
	PrimaryIndex     int
}

// coerce replaces a NaN or infinite value with a safe fallback so
// degenerate host input never propagates into the grid (spec.md §7
// "Geometry errors ... coerced to nearest valid value").
func coerce(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// BuildVirtualDesktop normalises a list of monitor rectangles into a
// virtual desktop spanning their bounding box.
func BuildVirtualDesktop(displays []DisplayInfo, primaryIndex int) VirtualDesktop {
	if len(displays) == 0 {
		return VirtualDesktop{Width: 1, Height: 1, Monitors: []Monitor{{Width: 1, Height: 1}}}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, d := range displays {
		w := math.Max(1, coerce(d.Width, 1))
		h := math.Max(1, coerce(d.Height, 1))
		x := coerce(d.X, 0)
		y := coerce(d.Y, 0)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x+w)
		maxY = math.Max(maxY, y+h)
	}

	vd := VirtualDesktop{
		OriginX:      int(math.Floor(minX)),
		OriginY:      int(math.Floor(minY)),
		Width:        int(math.Ceil(maxX - minX)),
		Height:       int(math.Ceil(maxY - minY)),
		PrimaryIndex: primaryIndex,
	}
	if vd.Width < 1 {
		vd.Width = 1
	}
	if vd.Height < 1 {
		vd.Height = 1
	}

	vd.Monitors = make([]Monitor, 0, len(displays))
	for _, d := range displays {
		w := math.Max(1, coerce(d.Width, 1))
		h := math.Max(1, coerce(d.Height, 1))
		x := coerce(d.X, 0) - minX
		y := coerce(d.Y, 0) - minY
		vd.Monitors = append(vd.Monitors, Monitor{
			X: int(math.Round(x)), Y: int(math.Round(y)),
			Width: int(math.Round(w)), Height: int(math.Round(h)),
		})
	}
	if vd.PrimaryIndex < 0 || vd.PrimaryIndex >= len(vd.Monitors) {
		vd.PrimaryIndex = 0
	}
	return vd
}

// VoidMask builds the void mask: true where the virtual desktop has no
// backing monitor rectangle, in row-major grid order (index y*W+x)
// matching simgrid's W*H byte layout.
func VoidMask(vd VirtualDesktop) []bool {
	w, h := vd.Width, vd.Height
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	for _, m := range vd.Monitors {
		x0, y0 := clampInt(m.X, 0, w), clampInt(m.Y, 0, h)
		x1, y1 := clampInt(m.X+m.Width, 0, w), clampInt(m.Y+m.Height, 0, h)
		for y := y0; y < y1; y++ {
			row := y * w
			for x := x0; x < x1; x++ {
				mask[row+x] = false
			}
		}
	}
	return mask
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

// Maps bundles the per-column geometry maps the simulator consumes.
type Maps struct {
	SpawnMap        []int // top-of-usable Y per column, -1 = fully void
	FloorMap        []int // work-area bottom Y per column
	DisplayFloorMap []int // display bottom Y per column
}

// BuildMaps derives SpawnMap/FloorMap/DisplayFloorMap from the void mask
// and window zones, following the window-update algorithm of spec.md
// §4.1 step 3 ("Clear spawnMap to originals, then blank spawn-map columns
// under VOID and spawn-block windows").
func BuildMaps(vd VirtualDesktop, voidMask []bool, zones []WindowZone) Maps {
	w, h := vd.Width, vd.Height
	maps := Maps{
		SpawnMap:        make([]int, w),
		FloorMap:        make([]int, w),
		DisplayFloorMap: make([]int, w),
	}

	for x := 0; x < w; x++ {
		top := -1
		for y := 0; y < h; y++ {
			if !voidMask[y*w+x] {
				top = y
				break
			}
		}
		maps.SpawnMap[x] = top

		bottom := -1
		for y := h - 1; y >= 0; y-- {
			if !voidMask[y*w+x] {
				bottom = y
				break
			}
		}
		if bottom < 0 {
			bottom = h - 1
		}
		maps.FloorMap[x] = bottom
		maps.DisplayFloorMap[x] = h - 1
	}

	for _, z := range zones {
		x0, x1 := clampInt(int(z.X), 0, w), clampInt(int(z.X+z.Width), 0, w)
		switch z.Kind {
		case ZoneVoid, ZoneSpawnBlock:
			for x := x0; x < x1; x++ {
				maps.SpawnMap[x] = -1
			}
		}
	}
	return maps
}
