package geometry

import (
	"math"
	"testing"
)

func TestBuildVirtualDesktop_EmptyInputYieldsUnitDesktop(t *testing.T) {
	vd := BuildVirtualDesktop(nil, 0)
	if vd.Width != 1 || vd.Height != 1 || len(vd.Monitors) != 1 {
		t.Fatalf("expected a 1x1 fallback desktop, got %+v", vd)
	}
}

func TestBuildVirtualDesktop_SpansBoundingBoxOfAllMonitors(t *testing.T) {
	displays := []DisplayInfo{
		{ID: 0, X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 1, X: 1920, Y: 0, Width: 1280, Height: 1024},
	}

	vd := BuildVirtualDesktop(displays, 0)

	if vd.Width != 1920+1280 {
		t.Errorf("expected width %d, got %d", 1920+1280, vd.Width)
	}
	if vd.Height != 1080 {
		t.Errorf("expected height 1080, got %d", vd.Height)
	}
	if len(vd.Monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(vd.Monitors))
	}
	if vd.Monitors[1].X != 1920 {
		t.Errorf("expected second monitor offset by 1920, got %d", vd.Monitors[1].X)
	}
}

func TestBuildVirtualDesktop_NegativeOriginIsNormalized(t *testing.T) {
	displays := []DisplayInfo{
		{ID: 0, X: -500, Y: -200, Width: 800, Height: 600},
	}
	vd := BuildVirtualDesktop(displays, 0)

	if vd.OriginX != -500 || vd.OriginY != -200 {
		t.Errorf("expected origin (-500,-200), got (%d,%d)", vd.OriginX, vd.OriginY)
	}
	if vd.Monitors[0].X != 0 || vd.Monitors[0].Y != 0 {
		t.Errorf("expected the sole monitor to sit at the new origin, got %+v", vd.Monitors[0])
	}
}

func TestBuildVirtualDesktop_CoercesNaNAndInfDimensions(t *testing.T) {
	displays := []DisplayInfo{
		{ID: 0, X: 0, Y: 0, Width: math.NaN(), Height: math.Inf(1)},
	}
	vd := BuildVirtualDesktop(displays, 0)

	if vd.Width < 1 || vd.Height < 1 {
		t.Fatalf("expected degenerate dimensions coerced to a valid positive size, got %+v", vd)
	}
}

func TestBuildVirtualDesktop_OutOfRangePrimaryIndexClampsToZero(t *testing.T) {
	displays := []DisplayInfo{{Width: 100, Height: 100}}
	vd := BuildVirtualDesktop(displays, 5)
	if vd.PrimaryIndex != 0 {
		t.Errorf("expected out-of-range primary index to clamp to 0, got %d", vd.PrimaryIndex)
	}
}

func TestVoidMask_MarksUncoveredCellsTrue(t *testing.T) {
	vd := VirtualDesktop{
		Width: 4, Height: 2,
		Monitors: []Monitor{{X: 0, Y: 0, Width: 2, Height: 2}},
	}
	mask := VoidMask(vd)

	// Column 0-1 covered by the monitor, column 2-3 void.
	if mask[0*4+0] || mask[0*4+1] {
		t.Error("expected covered cells to be non-void")
	}
	if !mask[0*4+2] || !mask[0*4+3] {
		t.Error("expected uncovered cells to be void")
	}
}

func TestVoidMask_FullyCoveredDesktopHasNoVoid(t *testing.T) {
	vd := VirtualDesktop{
		Width: 3, Height: 3,
		Monitors: []Monitor{{X: 0, Y: 0, Width: 3, Height: 3}},
	}
	mask := VoidMask(vd)
	for i, v := range mask {
		if v {
			t.Fatalf("expected cell %d to be covered, mask=%v", i, mask)
		}
	}
}

func TestBuildMaps_SpawnMapBlanksVoidAndSpawnBlockColumns(t *testing.T) {
	vd := VirtualDesktop{Width: 3, Height: 3}
	voidMask := []bool{
		false, false, false,
		false, false, false,
		false, false, false,
	}
	zones := []WindowZone{
		{X: 1, Y: 0, Width: 1, Height: 3, Kind: ZoneSpawnBlock},
	}

	maps := BuildMaps(vd, voidMask, zones)

	if maps.SpawnMap[1] != -1 {
		t.Errorf("expected spawn-blocked column to read -1, got %d", maps.SpawnMap[1])
	}
	if maps.SpawnMap[0] == -1 || maps.SpawnMap[2] == -1 {
		t.Errorf("expected untouched columns to retain a valid spawn row, got %v", maps.SpawnMap)
	}
}

func TestBuildMaps_AllVoidColumnGetsMinusOneSpawnAndLastRowFloor(t *testing.T) {
	vd := VirtualDesktop{Width: 1, Height: 3}
	voidMask := []bool{true, true, true}

	maps := BuildMaps(vd, voidMask, nil)

	if maps.SpawnMap[0] != -1 {
		t.Errorf("expected an all-void column to have spawn row -1, got %d", maps.SpawnMap[0])
	}
	if maps.FloorMap[0] != vd.Height-1 {
		t.Errorf("expected an all-void column's floor to fall back to the last row, got %d", maps.FloorMap[0])
	}
}
