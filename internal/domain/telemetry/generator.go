// Package telemetry generates simulated ISS telemetry samples for the
// companion backend.
package telemetry

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"
)

// Sample ranges.
const (
	baseLatitude   = 51.0
	latitudeSpan   = 10.0
	baseLongitude  = -0.1
	longitudeSpan  = 20.0
	minFuelLevel   = 80
	fuelLevelRange = 20 // fuel level is in [80, 100)
)

// Position is the ISS ground position.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Sample is one simulated telemetry reading.
type Sample struct {
	ISSPosition Position `json:"iss_position"`
	FuelLevel   int      `json:"fuel_level"`
	Timestamp   int64    `json:"timestamp"`
}

// JSON encodes the sample.
func (s Sample) JSON() json.RawMessage {
	b, _ := json.Marshal(s) // plain numeric struct, cannot fail
	return b
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulated data
	}
}

// WithClock sets the time source for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// Generator produces samples. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator returns a generator seeded from the clock unless WithSeed is given.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulated data
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a new sample.
func (g *Generator) Next() Sample {
	g.mu.Lock()
	lat := baseLatitude + g.rng.Float64()*latitudeSpan
	lon := baseLongitude + g.rng.Float64()*longitudeSpan
	fuel := minFuelLevel + g.rng.Intn(fuelLevelRange)
	g.mu.Unlock()

	return Sample{
		ISSPosition: Position{Latitude: lat, Longitude: lon},
		FuelLevel:   fuel,
		Timestamp:   g.now().Unix(),
	}
}
