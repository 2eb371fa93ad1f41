package writer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

// Signal names a synthetic waveform
type Signal string

const (
	SignalSine  Signal = "sine"
	SignalBurst Signal = "burst"
	SignalRamp  Signal = "ramp"
	SignalNoise Signal = "noise"
)

// Signals lists the supported waveforms
var Signals = []Signal{SignalSine, SignalBurst, SignalRamp, SignalNoise}

// ParseSignal validates a waveform name
func ParseSignal(name string) (Signal, error) {
	for _, s := range Signals {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown signal %q (want sine, burst, ramp or noise)", name)
}

// GeneratorConfig describes the generated stream
type GeneratorConfig struct {
	Signal     Signal
	Rate       float64       // samples per second
	Frequency  float64       // waveform frequency (Hz)
	Amplitude  float64
	Flush      time.Duration // how often samples are appended
	Timestamps bool
	Header     bool
	Seed       uint64
}

func (c *GeneratorConfig) setDefaults() {
	if c.Signal == "" {
		c.Signal = SignalSine
	}
	if c.Rate <= 0 {
		c.Rate = 1000
	}
	if c.Frequency <= 0 {
		c.Frequency = 5
	}
	if c.Amplitude == 0 {
		c.Amplitude = 1
	}
	if c.Flush <= 0 {
		c.Flush = 100 * time.Millisecond
	}
}

// Generator produces samples of a waveform and appends them to a CSV file
type Generator struct {
	cfg   GeneratorConfig
	n     int64
	noise distuv.Normal
}

// NewGenerator creates a generator starting at sample 0
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	cfg.setDefaults()
	if _, err := ParseSignal(string(cfg.Signal)); err != nil {
		return nil, err
	}
	return &Generator{
		cfg: cfg,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: cfg.Amplitude / 4,
			Src:   rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15),
		},
	}, nil
}

// Generated returns the number of samples produced so far
func (g *Generator) Generated() int64 {
	return g.n
}

// Next returns the next count samples
func (g *Generator) Next(count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		t := float64(g.n) / g.cfg.Rate
		out[i] = g.value(t)
		g.n++
	}
	return out
}

func (g *Generator) value(t float64) float64 {
	a, f := g.cfg.Amplitude, g.cfg.Frequency
	switch g.cfg.Signal {
	case SignalBurst:
		// a short pulse train once per period, silent otherwise
		phase := math.Mod(t*f, 1)
		if phase > 0.2 {
			return 0
		}
		envelope := math.Sin(math.Pi * phase / 0.2)
		return a * envelope * math.Sin(2*math.Pi*f*20*t)
	case SignalRamp:
		return a * math.Mod(t*f, 1)
	case SignalNoise:
		return g.noise.Rand()
	default:
		return a * math.Sin(2*math.Pi*f*t)
	}
}

// Run appends samples to path every flush interval until ctx is done or
// duration has elapsed (zero runs until cancelled). It returns the number
// of samples written.
func (g *Generator) Run(ctx context.Context, path string, duration time.Duration) (int64, error) {
	perFlush := int(math.Max(1, math.Round(g.cfg.Rate*g.cfg.Flush.Seconds())))
	interval := time.Duration(float64(time.Second) / g.cfg.Rate)

	util.LogInfo("Generating samples", util.F("path", path), util.F("signal", string(g.cfg.Signal)),
		util.F("rate", g.cfg.Rate), util.F("batch", perFlush))

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(g.cfg.Flush)
	defer ticker.Stop()

	start := time.Now()
	written := int64(0)
	flush := func() error {
		first := g.n
		values := g.Next(perFlush)
		err := SaveSamples(path, values, WriteOptions{
			Timestamps: g.cfg.Timestamps,
			Header:     g.cfg.Header,
			Start:      start.Add(time.Duration(first) * interval),
			Interval:   interval,
			Index:      first,
		})
		if err != nil {
			return err
		}
		written += int64(len(values))
		return nil
	}

	if err := flush(); err != nil {
		return written, err
	}
	for {
		select {
		case <-ctx.Done():
			return written, nil
		case <-deadline:
			return written, nil
		case <-ticker.C:
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
}
