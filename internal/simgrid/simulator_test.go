package simgrid

import "testing"

// TestSingleGlassImpact matches spec.md §8 scenario 1: a drop falling
// straight onto a glass cell should emit exactly one 'top' collision and
// leave a splash burst behind.
func TestSingleGlassImpact(t *testing.T) {
	s := NewSimulator(64, 64, 16, 64, 1)
	s.grid.cells[s.grid.idx(32, 32)] = CellGlass

	var events []CollisionEvent
	s.OnCollision(func(ev *CollisionEvent) {
		events = append(events, *ev)
	})

	s.drops.spawn(32, 20, 0, 200, 1.0)

	for i := 0; i < 600 && s.drops.count > 0; i++ {
		s.stepRain(rainDT)
	}

	if len(events) != 1 {
		t.Fatalf("expected exactly one collision event, got %d", len(events))
	}
	if events[0].CollisionSurface != SurfaceTop {
		t.Fatalf("expected top collision, got %s", events[0].CollisionSurface)
	}
	if s.splash.count == 0 {
		t.Fatalf("expected a splash burst to have spawned")
	}
}

// TestPassThroughSlip matches spec.md §8 scenario 2: a near-horizontal
// drop should slip through a glass cell without emitting a collision.
func TestPassThroughSlip(t *testing.T) {
	s := NewSimulator(64, 64, 16, 64, 2)
	s.grid.cells[s.grid.idx(32, 32)] = CellGlass

	collided := false
	s.OnCollision(func(ev *CollisionEvent) { collided = true })

	s.drops.x[0], s.drops.y[0] = 5, 32
	s.drops.prevX[0], s.drops.prevY[0] = 5, 32
	s.drops.velX[0], s.drops.velY[0] = 200, 20
	s.drops.radius[0] = 1.0
	s.drops.count = 1

	for i := 0; i < 200 && s.drops.count > 0; i++ {
		s.stepRain(rainDT)
	}

	if collided {
		t.Fatalf("expected no collision on shallow slip-through")
	}
}

// TestDropCountNeverExceedsMax checks the spec.md §3 invariant.
func TestDropCountNeverExceedsMax(t *testing.T) {
	s := NewSimulator(16, 16, 4, 16, 3)
	s.SetSpawnRate(1000)
	for i := 0; i < 10000; i++ {
		s.Step(1.0 / 60)
		if s.drops.count > s.drops.max {
			t.Fatalf("dropCount %d exceeds max %d", s.drops.count, s.drops.max)
		}
	}
}

// TestWaterDepthInvariant checks spec.md §8: grid[i]==WATER iff depth[i]>0.
func TestWaterDepthInvariant(t *testing.T) {
	s := NewSimulator(32, 32, 8, 32, 4)
	s.grid.setWater(10, 10, 0.5, 0)
	for i := range s.grid.cells {
		isWater := s.grid.cells[i] == CellWater
		hasDepth := s.grid.depth[i] > 0
		if isWater != hasDepth {
			t.Fatalf("cell %d: water=%v depth=%v mismatch", i, isWater, hasDepth)
		}
	}
	for tick := 0; tick < 120; tick++ {
		s.stepPuddle(puddleDT)
		for i := range s.grid.cells {
			isWater := s.grid.cells[i] == CellWater
			hasDepth := s.grid.depth[i] > 0
			if isWater != hasDepth {
				t.Fatalf("tick %d cell %d: water=%v depth=%v mismatch", tick, i, isWater, hasDepth)
			}
		}
	}
}

// TestStepFailsSilentlyOnNonPositiveDT ensures Step is a no-op for dt<=0.
func TestStepFailsSilentlyOnNonPositiveDT(t *testing.T) {
	s := NewSimulator(8, 8, 4, 8, 5)
	s.Step(0)
	s.Step(-1)
	if s.drops.count != 0 {
		t.Fatalf("expected no state change on non-positive dt")
	}
}

func TestMergeDrops(t *testing.T) {
	s := NewSimulator(32, 32, 8, 8, 6)
	s.drops.spawn(10, 10, 0, 0, 1.0)
	s.drops.spawn(10.5, 10, 0, 0, 1.0)
	s.mergeDrops()
	if s.drops.count != 1 {
		t.Fatalf("expected drops to merge into one, got %d", s.drops.count)
	}
}
