package sensor

import (
	"fmt"
	"time"
)

// State is the acquisition lifecycle. Initializing is the entry state;
// there is no terminal one, the subsystem runs for the process lifetime.
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateError
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// PhysicalSample is one motion reading in SI units. When DataReady is
// false the device had nothing new and every other field is zero; such a
// sample must not be forwarded downstream.
type PhysicalSample struct {
	AccelX, AccelY, AccelZ float64 // m/s^2
	GyroX, GyroY, GyroZ    float64 // rad/s
	Temperature            float64 // degC
	Timestamp              time.Time
	DataReady              bool
}

// CompositeSample is one acquisition cycle's full output: the motion
// fields plus the contributions of the other per-cycle readers. It
// crosses the hand-off queue by value. TemperatureSet distinguishes "no
// reader has set a temperature yet" from a genuine 0 degC reading.
type CompositeSample struct {
	Timestamp              time.Time
	AccelX, AccelY, AccelZ float64 // m/s^2
	GyroX, GyroY, GyroZ    float64 // rad/s
	Temperature            float64 // degC
	TemperatureSet         bool
	Pressure               float64 // hPa
	Humidity               float64 // %RH
	Valid                  bool
}

// AcquisitionStats is the snapshot the scheduler exposes. SampleRate is
// recomputed once per rolling window and lags by up to one window.
type AcquisitionStats struct {
	DeviceID    byte
	SampleCount uint64
	ErrorCount  uint64
	LastSample  time.Time
	SampleRate  float64 // Hz
	State       State
}

// Reader contributes fields to the composite sample under assembly. The
// scheduler calls readers in a fixed sequence on its own goroutine.
type Reader interface {
	Read(*CompositeSample) error
}
