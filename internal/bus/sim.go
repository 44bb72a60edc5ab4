package bus

import (
	"fmt"
	"math/rand"
	"time"
)

// Register map of the emulated part. The sim models the device itself, so
// it keeps its own copy of the layout instead of importing the driver.
const (
	simRegWhoAmI   = 0x0F
	simRegCtrl1XL  = 0x10
	simRegCtrl2G   = 0x11
	simRegCtrl3C   = 0x12
	simRegStatus   = 0x1E
	simRegOutTempL = 0x20

	simWhoAmI       = 0x6A
	simCtrl3Default = 0x04 // IF_INC, the power-on value
	simSWReset      = 0x01

	simStatusXLDA = 0x01
	simStatusGDA  = 0x02
	simStatusTDA  = 0x04

	simOutLen = 14
)

// Sim emulates one LSM6DSL behind the Transport contract: identity
// register, soft reset, ODR-driven ready flags and the 14-byte output
// burst behave like the part. It serves development without hardware and
// doubles as the test transport; FailNext and Hold script fault and
// contention scenarios.
type Sim struct {
	arb arbiter

	regs     [256]byte
	rng      *rand.Rand
	nextData time.Time
	failN    int
	failErr  error
	closed   bool
}

var _ Transport = (*Sim)(nil)

func NewSim(timeout time.Duration) *Sim {
	s := &Sim{
		arb: newArbiter(timeout),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.reset()
	return s
}

// reset restores the power-on register file. Caller holds the bus.
func (s *Sim) reset() {
	s.regs = [256]byte{}
	s.regs[simRegWhoAmI] = simWhoAmI
	s.regs[simRegCtrl3C] = simCtrl3Default
	s.nextData = time.Time{}
}

func (s *Sim) ReadReg(reg uint8, buf []byte) error {
	if err := s.arb.acquire(); err != nil {
		return err
	}
	defer s.arb.release()
	if err := s.scriptedError(); err != nil {
		return err
	}
	end := int(reg) + len(buf)
	if end > len(s.regs) {
		return fmt.Errorf("%w: read past register file (0x%02X+%d)", ErrTransport, reg, len(buf))
	}
	s.refresh(time.Now())
	copy(buf, s.regs[reg:end])
	if int(reg) < simRegOutTempL+simOutLen && end > simRegOutTempL {
		// reading the output block consumes the sample, as BDU does
		s.regs[simRegStatus] &^= simStatusXLDA | simStatusGDA | simStatusTDA
	}
	return nil
}

func (s *Sim) WriteReg(reg uint8, data []byte) error {
	if err := s.arb.acquire(); err != nil {
		return err
	}
	defer s.arb.release()
	if err := s.scriptedError(); err != nil {
		return err
	}
	for i, v := range data {
		r := int(reg) + i
		if r >= len(s.regs) {
			return fmt.Errorf("%w: write past register file (0x%02X+%d)", ErrTransport, reg, len(data))
		}
		if r == simRegCtrl3C && v&simSWReset != 0 {
			// SW_RESET self-clears and brings back the power-on defaults
			s.reset()
			continue
		}
		s.regs[r] = v
		if r == simRegCtrl1XL || r == simRegCtrl2G {
			if p := s.dataPeriod(); p > 0 {
				s.nextData = time.Now().Add(p)
			} else {
				s.nextData = time.Time{}
			}
		}
	}
	return nil
}

func (s *Sim) Close() error {
	s.arb.lock()
	defer s.arb.release()
	s.closed = true
	return nil
}

// SetNextSample latches an exact raw sample and raises every ready flag,
// bypassing the output data rate. Meant for tests and bench rigs that
// need known register contents.
func (s *Sim) SetNextSample(temp int16, gyro, accel [3]int16) {
	s.arb.lock()
	defer s.arb.release()
	s.latch(temp, gyro, accel)
	s.regs[simRegStatus] |= simStatusXLDA | simStatusGDA | simStatusTDA
}

// SetReg pokes a raw register value without write side effects.
func (s *Sim) SetReg(reg uint8, v byte) {
	s.arb.lock()
	defer s.arb.release()
	s.regs[reg] = v
}

// FailNext makes the next n register operations fail with err
// (ErrTransport when err is nil).
func (s *Sim) FailNext(n int, err error) {
	s.arb.lock()
	defer s.arb.release()
	if err == nil {
		err = ErrTransport
	}
	s.failN = n
	s.failErr = err
}

// Hold occupies the bus for d, the way another bus user with a long
// transaction would.
func (s *Sim) Hold(d time.Duration) {
	s.arb.lock()
	go func() {
		time.Sleep(d)
		s.arb.release()
	}()
}

func (s *Sim) scriptedError() error {
	if s.closed {
		return fmt.Errorf("%w: transport closed", ErrTransport)
	}
	if s.failN > 0 {
		s.failN--
		return s.failErr
	}
	return nil
}

// refresh latches a new output sample once the configured data rate says
// one is due.
func (s *Sim) refresh(now time.Time) {
	period := s.dataPeriod()
	if period == 0 || s.nextData.IsZero() || now.Before(s.nextData) {
		return
	}
	s.generate()
	s.nextData = now.Add(period)
}

// generate produces a rest pose with a little noise: gravity on Z, a warm
// bench around 26 degC, idle gyro.
func (s *Sim) generate() {
	temp := int16(256 + s.rng.Intn(128))
	var gyro [3]int16
	for i := range gyro {
		gyro[i] = int16(s.rng.Intn(21) - 10)
	}
	var accel [3]int16
	accel[0] = int16(s.rng.Intn(41) - 20)
	accel[1] = int16(s.rng.Intn(41) - 20)
	accel[2] = s.restAccelZ()
	s.latch(temp, gyro, accel)

	var bits byte
	if simODRPeriod(s.regs[simRegCtrl1XL]) != 0 {
		bits |= simStatusXLDA | simStatusTDA
	}
	if simODRPeriod(s.regs[simRegCtrl2G]) != 0 {
		bits |= simStatusGDA
	}
	s.regs[simRegStatus] |= bits
}

// restAccelZ returns one g expressed in LSB for the configured full
// scale, plus noise.
func (s *Sim) restAccelZ() int16 {
	var sens float64
	switch s.regs[simRegCtrl1XL] & 0x0C {
	case 0x00:
		sens = 0.061
	case 0x08:
		sens = 0.122
	case 0x0C:
		sens = 0.244
	case 0x04:
		sens = 0.488
	}
	return int16(1000.0/sens) + int16(s.rng.Intn(41)-20)
}

func (s *Sim) latch(temp int16, gyro, accel [3]int16) {
	out := s.regs[simRegOutTempL : simRegOutTempL+simOutLen]
	putI2(out[0:], temp)
	putI2(out[2:], gyro[0])
	putI2(out[4:], gyro[1])
	putI2(out[6:], gyro[2])
	putI2(out[8:], accel[0])
	putI2(out[10:], accel[1])
	putI2(out[12:], accel[2])
}

func (s *Sim) dataPeriod() time.Duration {
	pa := simODRPeriod(s.regs[simRegCtrl1XL])
	pg := simODRPeriod(s.regs[simRegCtrl2G])
	switch {
	case pa == 0:
		return pg
	case pg == 0 || pa < pg:
		return pa
	default:
		return pg
	}
}

func simODRPeriod(code byte) time.Duration {
	switch code & 0xF0 {
	case 0x10:
		return 80 * time.Millisecond // 12.5 Hz
	case 0x20:
		return time.Second / 26
	case 0x30:
		return time.Second / 52
	case 0x40:
		return time.Second / 104
	default:
		return 0 // power-down
	}
}

func putI2(p []byte, v int16) {
	p[0] = byte(v)
	p[1] = byte(uint16(v) >> 8)
}
