package mapper

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rainydesk/engine/internal/material"
)

func testPhysics() Physics {
	return Physics{
		VelMin: 2, VelMax: 40,
		FreqMin: 100, FreqMax: 8000,
		DecayBase: 0.05, DecayRadiusScal: 0.02,
		MinnaertBase: 30,
	}
}

func testMaterial() material.Descriptor {
	return material.Descriptor{
		ID:                "default",
		BubbleProbability: 0.5,
		FilterFreq:        2000,
		DecayMin:          0.05,
		DecayMax:          0.5,
		PitchMultiplier:   1,
	}
}

func TestMap_IsDeterministicForAFixedRNG(t *testing.T) {
	ev := Event{Velocity: 12, DropRadius: 3, ImpactAngle: 0.2, Mass: 1}

	p1 := Map(ev, testMaterial(), testPhysics(), rand.New(rand.NewSource(42)))
	p2 := Map(ev, testMaterial(), testPhysics(), rand.New(rand.NewSource(42)))

	if p1 != p2 {
		t.Errorf("expected identical output for identical inputs and seed, got %+v vs %+v", p1, p2)
	}
}

func TestMap_NilRNGDoesNotPanic(t *testing.T) {
	ev := Event{Velocity: 5, DropRadius: 1, ImpactAngle: 0}
	_ = Map(ev, testMaterial(), testPhysics(), nil)
}

func TestMap_FrequencyClampedToPhysicsRange(t *testing.T) {
	phys := testPhysics()
	mat := testMaterial()
	mat.PitchMultiplier = 1000 // force the raw Minnaert frequency far above FreqMax

	p := Map(Event{Velocity: 10, DropRadius: 0.001}, mat, phys, rand.New(rand.NewSource(1)))
	if p.FrequencyHz > phys.FreqMax || p.FrequencyHz < phys.FreqMin {
		t.Errorf("expected frequency clamped to [%v, %v], got %v", phys.FreqMin, phys.FreqMax, p.FrequencyHz)
	}
}

func TestMap_DecayClampedToMaterialRange(t *testing.T) {
	phys := testPhysics()
	mat := testMaterial()

	p := Map(Event{Velocity: 10, DropRadius: 1000}, mat, phys, rand.New(rand.NewSource(1)))
	if p.DecayS > mat.DecayMax || p.DecayS < mat.DecayMin {
		t.Errorf("expected decay clamped to [%v, %v], got %v", mat.DecayMin, mat.DecayMax, p.DecayS)
	}
}

func TestMap_ZeroRadiusDoesNotDivideByZero(t *testing.T) {
	p := Map(Event{Velocity: 5, DropRadius: 0}, testMaterial(), testPhysics(), rand.New(rand.NewSource(1)))
	if math.IsInf(p.FrequencyHz, 0) || math.IsNaN(p.FrequencyHz) {
		t.Errorf("expected a finite frequency for a zero-radius drop, got %v", p.FrequencyHz)
	}
}

func TestMap_HigherVelocityYieldsLouderVolume(t *testing.T) {
	phys := testPhysics()
	mat := testMaterial()

	quiet := Map(Event{Velocity: 3, DropRadius: 2}, mat, phys, rand.New(rand.NewSource(1)))
	loud := Map(Event{Velocity: 35, DropRadius: 2}, mat, phys, rand.New(rand.NewSource(1)))

	if loud.VolumeDb <= quiet.VolumeDb {
		t.Errorf("expected higher velocity to map to a louder volume, got quiet=%v loud=%v", quiet.VolumeDb, loud.VolumeDb)
	}
}

func TestMap_TriggerBubbleNeverFiresWithZeroProbability(t *testing.T) {
	mat := testMaterial()
	mat.BubbleProbability = 0
	phys := testPhysics()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		p := Map(Event{Velocity: float64(i), DropRadius: 1, ImpactAngle: 0}, mat, phys, rng)
		if p.TriggerBubble {
			t.Fatal("expected a zero-probability material to never trigger a bubble")
		}
	}
}

func TestMap_HighVelocitySuppressesBubbleTriggerLikelihood(t *testing.T) {
	mat := testMaterial()
	mat.BubbleProbability = 1
	phys := testPhysics()

	rng := rand.New(rand.NewSource(9))
	fastTriggers := 0
	for i := 0; i < 1000; i++ {
		p := Map(Event{Velocity: 20, DropRadius: 1, ImpactAngle: 0}, mat, phys, rng)
		if p.TriggerBubble {
			fastTriggers++
		}
	}

	rng = rand.New(rand.NewSource(9))
	slowTriggers := 0
	for i := 0; i < 1000; i++ {
		p := Map(Event{Velocity: 5, DropRadius: 1, ImpactAngle: 0}, mat, phys, rng)
		if p.TriggerBubble {
			slowTriggers++
		}
	}

	if fastTriggers >= slowTriggers {
		t.Errorf("expected velocityFactor to reduce high-velocity trigger rate, got fast=%d slow=%d", fastTriggers, slowTriggers)
	}
}
