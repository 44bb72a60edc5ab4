package acquisition

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/TerryYan26/RTOS/internal/handoff"
	"github.com/TerryYan26/RTOS/internal/sensor"
	"github.com/TerryYan26/RTOS/internal/sensor/lsm6dsl"
)

const (
	DefaultSampleRateHz = 100
	DefaultMaxFailures  = 3
	DefaultStatsWindow  = time.Second
)

// Options tunes one scheduler instance. Zero fields fall back to the
// reference configuration.
type Options struct {
	SampleRateHz int           // cycle frequency
	MaxFailures  int           // consecutive failures before reinitialization
	StatsWindow  time.Duration // sample-rate measurement window
}

// Scheduler drives the motion sensor and the auxiliary readers at a
// fixed cadence, assembles one composite sample per cycle, and manages
// fault recovery. A single goroutine runs the cycle loop; the working
// sample, the failure counter and the rate window belong to that
// goroutine alone, while the stats and the enabled flag sit behind a
// short-hold mutex.
type Scheduler struct {
	dev     *lsm6dsl.Device
	queue   *handoff.Queue
	readers []sensor.Reader

	period      time.Duration
	maxFailures int
	window      time.Duration

	mu      sync.Mutex
	stats   sensor.AcquisitionStats
	enabled bool
	active  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// owned by the cycle goroutine, never touched from outside it
	working     sensor.CompositeSample
	fails       int
	windowStart time.Time
	windowCount int
}

func New(dev *lsm6dsl.Device, queue *handoff.Queue, opts Options, readers ...sensor.Reader) *Scheduler {
	rate := opts.SampleRateHz
	if rate <= 0 {
		rate = DefaultSampleRateHz
	}
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	window := opts.StatsWindow
	if window <= 0 {
		window = DefaultStatsWindow
	}
	s := &Scheduler{
		dev:         dev,
		queue:       queue,
		readers:     readers,
		period:      time.Second / time.Duration(rate),
		maxFailures: maxFailures,
		window:      window,
	}
	s.stats.State = sensor.StateInitializing
	return s
}

// Start initializes the device and launches the cycle loop. A failed
// initialization still starts the loop: the scheduler enters the error
// state and keeps attempting recovery on its own cadence, so the
// returned error needs logging but no caller-side retry. Calling Start
// on a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	s.active = true
	s.enabled = true
	s.stats.State = sensor.StateInitializing
	s.mu.Unlock()

	err := s.dev.Init()
	if err != nil {
		log.Errorln("sensor initialization failed:", err)
		s.setState(sensor.StateError)
	} else {
		s.mu.Lock()
		s.stats.DeviceID = s.dev.ID()
		s.stats.State = sensor.StateRunning
		s.mu.Unlock()
		log.Infof("sensor 0x%02X initialized, sampling every %v", s.dev.ID(), s.period)
	}

	go s.run()
	return err
}

// Stop ends the cycle loop and waits for it. The device keeps whatever
// power state it had; call Enable(false) first to power it down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.setState(sensor.StateStopped)
	log.Infoln("acquisition stopped")
}

// Enable starts or stops sampling without touching the cycle loop. It is
// an idempotent no-op when the requested state already holds. Disabling
// always lands in the stopped state, even when the power-down write
// fails; the write error is still returned.
func (s *Scheduler) Enable(on bool) error {
	s.mu.Lock()
	if s.enabled == on {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if on {
		if err := s.dev.Enable(true); err != nil {
			return err
		}
		s.mu.Lock()
		s.enabled = true
		s.stats.State = sensor.StateRunning
		s.mu.Unlock()
		log.Infoln("sensor acquisition enabled")
		return nil
	}

	err := s.dev.Enable(false)
	s.mu.Lock()
	s.enabled = false
	s.stats.State = sensor.StateStopped
	s.mu.Unlock()
	log.Infoln("sensor acquisition disabled")
	return err
}

// GetStats returns a consistent snapshot; no field can be observed
// mid-update.
func (s *Scheduler) GetStats() sensor.AcquisitionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ResetStats zeros the counters and the measured rate. The last-sample
// timestamp and the lifecycle state stay.
func (s *Scheduler) ResetStats() {
	s.mu.Lock()
	s.stats.SampleCount = 0
	s.stats.ErrorCount = 0
	s.stats.SampleRate = 0
	s.mu.Unlock()
	log.Debugln("acquisition stats reset")
}

// Running reports whether the cycle loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Faulted reports whether the scheduler is in the error state and
// attempting reinitialization.
func (s *Scheduler) Faulted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.State == sensor.StateError
}

func (s *Scheduler) setState(st sensor.State) {
	s.mu.Lock()
	s.stats.State = st
	s.mu.Unlock()
}

// run is the periodic loop. Each iteration advances an absolute deadline
// by one period, so per-cycle work does not accumulate drift; an overrun
// re-anchors on the current time instead of bursting to catch up.
func (s *Scheduler) run() {
	defer s.wg.Done()
	s.windowStart = time.Now()
	s.windowCount = 0
	next := time.Now()
	for {
		s.cycle(time.Now())

		next = next.Add(s.period)
		d := time.Until(next)
		if d < 0 {
			next = time.Now()
			d = 0
		}
		t := time.NewTimer(d)
		select {
		case <-s.ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// cycle does one tick of work: nothing when disabled, a reinitialization
// attempt while faulted, otherwise one composite sample.
func (s *Scheduler) cycle(start time.Time) {
	s.mu.Lock()
	enabled := s.enabled
	state := s.stats.State
	s.mu.Unlock()

	if !enabled {
		return
	}
	if state == sensor.StateError {
		s.reinitialize()
		return
	}

	s.working = sensor.CompositeSample{Timestamp: start}

	err := s.readMotion(&s.working)
	if err == nil {
		// a motion failure short-circuits the rest of the chain
		for _, r := range s.readers {
			if err = r.Read(&s.working); err != nil {
				break
			}
		}
	}
	if err != nil {
		s.cycleFailed(err)
		return
	}

	s.working.Valid = true
	s.fails = 0

	if err := s.queue.Enqueue(s.working); err != nil {
		log.Warnln("failed to hand off sample:", err)
		s.mu.Lock()
		s.stats.ErrorCount++
		s.mu.Unlock()
	}
	s.recordSample(start)
}

// readMotion copies one physical sample into the working composite. A
// sample with nothing new leaves the motion fields zeroed, which still
// counts as a successful step.
func (s *Scheduler) readMotion(out *sensor.CompositeSample) error {
	smp, err := s.dev.ReadSample()
	if err != nil {
		return err
	}
	if !smp.DataReady {
		log.Debugln("motion data not ready this cycle")
		return nil
	}
	out.AccelX, out.AccelY, out.AccelZ = smp.AccelX, smp.AccelY, smp.AccelZ
	out.GyroX, out.GyroY, out.GyroZ = smp.GyroX, smp.GyroY, smp.GyroZ
	out.Temperature = smp.Temperature
	out.TemperatureSet = true
	return nil
}

func (s *Scheduler) cycleFailed(err error) {
	s.fails++
	s.mu.Lock()
	s.stats.ErrorCount++
	s.mu.Unlock()
	log.Errorf("acquisition cycle failed (%d/%d): %v", s.fails, s.maxFailures, err)

	if s.fails >= s.maxFailures {
		log.Errorln("consecutive failure limit reached, entering error state")
		s.fails = 0
		s.setState(sensor.StateError)
	}
}

// reinitialize runs in place of a normal cycle while the scheduler is
// faulted. The sampling period itself throttles the retries; there is no
// separate backoff.
func (s *Scheduler) reinitialize() {
	if err := s.dev.Init(); err != nil {
		log.Errorln("sensor reinitialization failed:", err)
		s.mu.Lock()
		s.stats.ErrorCount++
		s.mu.Unlock()
		return
	}
	s.fails = 0
	s.mu.Lock()
	s.stats.DeviceID = s.dev.ID()
	s.stats.State = sensor.StateRunning
	s.mu.Unlock()
	log.Infoln("sensor reinitialized successfully")
}

// recordSample updates the counters and, when the rolling window closes,
// recomputes the measured rate from whole cycles. The window is anchored
// to the scheduler's own cycle timestamps, not wall-clock progress.
func (s *Scheduler) recordSample(start time.Time) {
	s.windowCount++
	var rate float64
	recompute := false
	if elapsed := start.Sub(s.windowStart); elapsed >= s.window {
		if ms := elapsed.Milliseconds(); ms > 0 {
			rate = float64(s.windowCount) * 1000.0 / float64(ms)
			recompute = true
		}
		s.windowStart = start
		s.windowCount = 0
	}

	s.mu.Lock()
	s.stats.SampleCount++
	s.stats.LastSample = start
	if recompute {
		s.stats.SampleRate = rate
	}
	s.mu.Unlock()

	if recompute {
		log.Debugf("measured sample rate: %.1f Hz", rate)
	}
}
