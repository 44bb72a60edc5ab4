package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/TerryYan26/RTOS/internal/config"
)

// ErrTimeout means bus arbitration or the transaction itself did not
// complete within the configured bound.
var ErrTimeout = errors.New("bus timeout")

// ErrTransport means the underlying bus signaled a failure.
var ErrTransport = errors.New("bus transport error")

// Transport is a register-addressed bus endpoint. Arbitration is internal:
// every call acquires the bus for exactly one transaction and releases it
// before returning, so no caller can hold the bus across register
// operations. A multi-byte burst counts as one transaction.
type Transport interface {
	// ReadReg fills buf with len(buf) bytes starting at register reg.
	ReadReg(reg uint8, buf []byte) error
	// WriteReg writes data to consecutive registers starting at reg.
	WriteReg(reg uint8, data []byte) error
	Close() error
}

// Open selects a transport backend by name.
func Open(opt config.BusOpt) (Transport, error) {
	timeout := time.Duration(opt.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = config.DefaultBusTimeoutMS * time.Millisecond
	}
	switch opt.Backend {
	case "", config.BusBackendSim:
		return NewSim(timeout), nil
	case config.BusBackendI2C:
		return OpenI2C(opt.Device, uint16(opt.Addr), timeout)
	default:
		return nil, fmt.Errorf("unknown bus backend %q", opt.Backend)
	}
}

// arbiter serializes bus transactions. acquire gives up after the
// configured wait instead of blocking forever; lock waits without bound
// and is meant for in-process housekeeping, not transactions.
type arbiter struct {
	slot    chan struct{}
	timeout time.Duration
}

func newArbiter(timeout time.Duration) arbiter {
	return arbiter{slot: make(chan struct{}, 1), timeout: timeout}
}

func (a *arbiter) acquire() error {
	select {
	case a.slot <- struct{}{}:
		return nil
	default:
	}
	t := time.NewTimer(a.timeout)
	defer t.Stop()
	select {
	case a.slot <- struct{}{}:
		return nil
	case <-t.C:
		return fmt.Errorf("%w: arbitration not acquired within %v", ErrTimeout, a.timeout)
	}
}

func (a *arbiter) lock() {
	a.slot <- struct{}{}
}

func (a *arbiter) release() {
	<-a.slot
}
