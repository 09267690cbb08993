package wind

import "testing"

func defaultConfig() Config {
	var c Config
	c.Enabled = true
	c.Bed.Enabled = true
	c.Bed.HpfHz = 80
	c.Bed.LpfHz = 800
	c.Bed.LfoDepthHz = 100
	c.Bed.LfoRateHz = 0.2
	c.Gust.Enabled = true
	c.Gust.MinInterval = 0.01
	c.Gust.MaxInterval = 0.02
	c.Gust.LpfHz = 400
	c.Aeolian.Enabled = true
	c.Aeolian.Harmonics = 3
	c.Aeolian.StrouhalNum = 0.2
	c.Aeolian.DiameterMm = 2
	c.Singing.Enabled = true
	c.Katabatic.Enabled = true
	c.Katabatic.LpfHz = 150
	c.Katabatic.SurgeRate = 0.1
	c.SpeedPercent = 50
	return c
}

func TestModuleStreamProducesBoundedOutput(t *testing.T) {
	m := New(defaultConfig(), 44100, 1)
	buf := make([][2]float64, 4096)
	n, ok := m.Stream(buf)
	if n != len(buf) || !ok {
		t.Fatalf("expected full stream, got n=%d ok=%v", n, ok)
	}
	for _, s := range buf {
		if s[0] != s[0] { // NaN check
			t.Fatalf("got NaN sample")
		}
	}
}

func TestDisabledModuleIsSilent(t *testing.T) {
	cfg := defaultConfig()
	cfg.Enabled = false
	m := New(cfg, 44100, 1)
	buf := make([][2]float64, 256)
	m.Stream(buf)
	for _, s := range buf {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("expected silence when module disabled")
		}
	}
}

func TestGustSchedulerEventuallyFires(t *testing.T) {
	m := New(defaultConfig(), 44100, 2)
	fired := false
	for i := 0; i < 44100; i++ {
		m.Advance(1.0 / 44100)
		if !m.gustEnv.Done() {
			fired = true
			break
		}
	}
	if !fired {
		t.Fatalf("expected the gust scheduler to fire within one second given a 10-20ms interval")
	}
}
