package bus

import (
	"sync"

	"github.com/rainydesk/engine/internal/dsp"
)

// MasterConfig mirrors spec.md §4.10's master stage plus the shared SFX
// reverb/delay aux returns every bus's pre-fader send feeds (spec.md §6
// `reverb.{decay,wetness}`, `delay.{enabled,time,feedback,wet}`).
type MasterConfig struct {
	GainDb         float64
	LimiterThresholdDb float64
	LimiterReleaseMs    float64

	ReverbDecay   float64
	ReverbWetness float64

	DelayEnabled  bool
	DelayTimeS    float64
	DelayFeedback float64
	DelayWet      float64
}

// Mixer owns the four fixed buses and the shared master chain (gain →
// limiter → output). It computes each bus's effective mute from the
// solo state once per block before rendering (spec.md §4.10). The
// reverb/delay aux returns sum every bus's pre-fader send tap, run it
// through a shared tank, and add the result back before the master gain.
type Mixer struct {
	mu sync.Mutex

	buses   []*Bus
	limiter *dsp.Compressor
	reverb  *dsp.Reverb
	delay   *dsp.Delay

	masterCfg  MasterConfig
	sampleRate float64

	reverbBuf, delayBuf [][2]float64
}

// NewMixer constructs a mixer over the four fixed buses, in Rain/Wind/
// Thunder/Matrix order (order is cosmetic; buses are summed).
func NewMixer(rain, wind, thunder, matrix *Bus, masterCfg MasterConfig, sampleRate float64) *Mixer {
	m := &Mixer{
		buses:      []*Bus{rain, wind, thunder, matrix},
		masterCfg:  masterCfg,
		sampleRate: sampleRate,
	}
	m.limiter = dsp.NewCompressor(nil, sampleRate)
	m.limiter.ThresholdDb = masterCfg.LimiterThresholdDb
	m.limiter.Ratio = 20 // effectively brick-wall at this ratio
	m.limiter.AttackMs = 1
	m.limiter.ReleaseMs = masterCfg.LimiterReleaseMs

	m.reverb = dsp.NewReverb(sampleRate)
	m.reverb.Decay = masterCfg.ReverbDecay
	m.reverb.Wetness = masterCfg.ReverbWetness

	m.delay = dsp.NewDelay(sampleRate)
	m.delay.TimeS = masterCfg.DelayTimeS
	m.delay.Feedback = masterCfg.DelayFeedback
	m.delay.Wet = masterCfg.DelayWet
	return m
}

// SetMasterConfig updates the master gain/limiter/aux-send parameters.
func (m *Mixer) SetMasterConfig(cfg MasterConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterCfg = cfg
	m.limiter.ThresholdDb = cfg.LimiterThresholdDb
	m.limiter.ReleaseMs = cfg.LimiterReleaseMs
	m.reverb.Decay = cfg.ReverbDecay
	m.reverb.Wetness = cfg.ReverbWetness
	m.delay.TimeS = cfg.DelayTimeS
	m.delay.Feedback = cfg.DelayFeedback
	m.delay.Wet = cfg.DelayWet
}

func (m *Mixer) anySoloed() bool {
	for _, b := range m.buses {
		b.mu.Lock()
		solo := b.cfg.Solo
		b.mu.Unlock()
		if solo {
			return true
		}
	}
	return false
}

// Stream renders one block: each bus computes its effective mute from
// the current solo state, renders and sums into the master chain.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	anySolo := m.anySoloed()
	for _, b := range m.buses {
		b.mu.Lock()
		mute := b.cfg.Mute || (anySolo && !b.cfg.Solo)
		b.mu.Unlock()
		b.setEffectiveMute(mute)
	}

	for i := range samples {
		samples[i] = [2]float64{}
	}

	buf := make([][2]float64, len(samples))
	n := len(samples)
	ok := true
	for _, b := range m.buses {
		bn, bok := b.Stream(buf)
		if bn < n {
			n = bn
		}
		ok = ok && bok
		for i := 0; i < bn; i++ {
			samples[i][0] += buf[i][0]
			samples[i][1] += buf[i][1]
		}
	}

	m.mu.Lock()
	gainDb := m.masterCfg.GainDb
	delayEnabled := m.masterCfg.DelayEnabled
	m.mu.Unlock()

	if cap(m.reverbBuf) < n {
		m.reverbBuf = make([][2]float64, n)
		m.delayBuf = make([][2]float64, n)
	}
	m.reverbBuf = m.reverbBuf[:n]
	m.delayBuf = m.delayBuf[:n]
	m.ReverbSendMix(m.reverbBuf)
	m.DelaySendMix(m.delayBuf)

	for i := 0; i < n; i++ {
		rl, rr := m.reverb.ProcessStereo(m.reverbBuf[i][0], m.reverbBuf[i][1])
		samples[i][0] += rl
		samples[i][1] += rr

		if delayEnabled {
			dl, dr := m.delay.ProcessStereo(m.delayBuf[i][0], m.delayBuf[i][1])
			samples[i][0] += dl
			samples[i][1] += dr
		}
	}

	gain := dsp.DbToLinear(gainDb)
	for i := range samples {
		samples[i][0] *= gain
		samples[i][1] *= gain
		samples[i][0], samples[i][1] = m.limiter.ProcessStereo(samples[i][0], samples[i][1])
	}

	return n, ok
}

func (m *Mixer) Err() error {
	for _, b := range m.buses {
		if err := b.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Bus returns one of the fixed buses by name, for config fan-out.
func (m *Mixer) Bus(name string) *Bus {
	for _, b := range m.buses {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// ReverbSendMix sums every bus's current reverb send tap; Stream feeds
// this into the shared reverb aux return each block.
func (m *Mixer) ReverbSendMix(out [][2]float64) {
	for i := range out {
		out[i] = [2]float64{}
	}
	for _, b := range m.buses {
		send := b.ReverbSend()
		for i := 0; i < len(out) && i < len(send); i++ {
			out[i][0] += send[i][0]
			out[i][1] += send[i][1]
		}
	}
}

// DelaySendMix sums every bus's current delay send tap; Stream feeds
// this into the shared delay aux return each block.
func (m *Mixer) DelaySendMix(out [][2]float64) {
	for i := range out {
		out[i] = [2]float64{}
	}
	for _, b := range m.buses {
		send := b.DelaySend()
		for i := 0; i < len(out) && i < len(send); i++ {
			out[i][0] += send[i][0]
			out[i][1] += send[i][1]
		}
	}
}
