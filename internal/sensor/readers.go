package sensor

import (
	"math/rand"
	"time"
)

// SimPressure stands in for the barometer until one is wired up. It
// generates sea-level-ish readings with a little jitter.
type SimPressure struct {
	rng *rand.Rand
}

func NewSimPressure() *SimPressure {
	return &SimPressure{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *SimPressure) Read(s *CompositeSample) error {
	s.Pressure = 1013.25 + float64(r.rng.Intn(100)-50)/10.0
	return nil
}

// SimHumidity stands in for the hygrometer. Besides humidity it supplies
// a fallback room temperature when no earlier reader set one.
type SimHumidity struct {
	rng *rand.Rand
}

func NewSimHumidity() *SimHumidity {
	return &SimHumidity{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *SimHumidity) Read(s *CompositeSample) error {
	s.Humidity = 45.0 + float64(r.rng.Intn(200)-100)/10.0
	if !s.TemperatureSet {
		s.Temperature = 22.0 + float64(r.rng.Intn(100)-50)/10.0
		s.TemperatureSet = true
	}
	return nil
}

var _ Reader = (*SimPressure)(nil)
var _ Reader = (*SimHumidity)(nil)
