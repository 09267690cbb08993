package texture

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
)

func testFormat() beep.Format {
	return beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
}

func fakeLoader(calls *int) AssetLoader {
	return func(name string) (*beep.Buffer, error) {
		if name == "" {
			return nil, errors.New("empty asset name")
		}
		*calls++
		buf := beep.NewBuffer(testFormat())
		return buf, nil
	}
}

func TestSetIntensityNoLevelChangeOnlyRamps(t *testing.T) {
	var calls int
	reg := SurfaceRegistry{"concrete": {"sparse", "light", "dense", "very-dense"}}
	l := New(reg, fakeLoader(&calls), 44100)
	l.SetSurface("concrete")

	l.SetIntensity(50)
	firstCalls := calls
	l.SetIntensity(50)
	if calls != firstCalls {
		t.Fatalf("expected no new loads on repeated identical intensity, got %d new calls", calls-firstCalls)
	}
}

func TestSetIntensityIdempotentAfterSettling(t *testing.T) {
	var calls int
	reg := SurfaceRegistry{"concrete": {"sparse", "light", "dense", "very-dense"}}
	l := New(reg, fakeLoader(&calls), 44100)
	l.SetSurface("concrete")
	l.SetIntensity(30)
	l.SetIntensity(30)

	buf := make([][2]float64, 64)
	n, ok := l.Stream(buf)
	if n != 64 || !ok {
		t.Fatalf("expected a full silent-or-rendered buffer, got n=%d ok=%v", n, ok)
	}
}

func TestSetSurfaceInvalidatesGeneration(t *testing.T) {
	var calls int
	reg := SurfaceRegistry{
		"concrete": {"sparse", "dense"},
		"tin":      {"sparse", "dense"},
	}
	l := New(reg, fakeLoader(&calls), 44100)
	l.SetSurface("concrete")
	genBefore := l.loadGeneration
	l.SetSurface("tin")
	if l.loadGeneration == genBefore {
		t.Fatalf("expected load generation to advance on surface change")
	}
}
