package dsp

import "testing"

func TestDelayRepeatsInputAfterTapLength(t *testing.T) {
	d := NewDelay(1000)
	d.TimeS = 0.01 // 10-sample tap at 1000Hz
	d.Feedback = 0
	d.Wet = 1

	outL, _ := d.ProcessStereo(1, 1)
	if outL != 0 {
		t.Fatalf("expected silence before the tap fills, got %v", outL)
	}
	for i := 0; i < 9; i++ {
		d.ProcessStereo(0, 0)
	}
	outL, _ = d.ProcessStereo(0, 0)
	if outL != 1 {
		t.Fatalf("expected the original impulse to repeat at the tap length, got %v", outL)
	}
}

func TestDelayWetZeroPassesInputThrough(t *testing.T) {
	d := NewDelay(1000)
	d.TimeS = 0.01
	d.Feedback = 0.5
	d.Wet = 0

	l, r := d.ProcessStereo(0.3, -0.2)
	if l != 0.3 || r != -0.2 {
		t.Fatalf("expected zero wet mix to pass dry input unchanged, got (%v, %v)", l, r)
	}
}

func TestReverbWetZeroPassesInputThrough(t *testing.T) {
	rv := NewReverb(44100)
	rv.Decay = 0.5
	rv.Wetness = 0

	l, r := rv.ProcessStereo(0.4, -0.1)
	if l != 0.4 || r != -0.1 {
		t.Fatalf("expected zero wetness to pass dry input unchanged, got (%v, %v)", l, r)
	}
}

func TestReverbTailPersistsAfterInputStops(t *testing.T) {
	rv := NewReverb(44100)
	rv.Decay = 0.8
	rv.Wetness = 1

	for i := 0; i < 50; i++ {
		rv.ProcessStereo(1, 1)
	}

	sawEnergy := false
	for i := 0; i < 2000; i++ {
		l, _ := rv.ProcessStereo(0, 0)
		if l != 0 {
			sawEnergy = true
			break
		}
	}
	if !sawEnergy {
		t.Fatalf("expected the comb/allpass network to still be ringing after the input stops")
	}
}
