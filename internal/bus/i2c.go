package bus

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2C drives a register-addressed device behind a Linux I2C adapter.
type I2C struct {
	bus i2c.BusCloser
	dev i2c.Dev
	arb arbiter
}

var _ Transport = (*I2C)(nil)

// OpenI2C opens the named adapter ("1", "/dev/i2c-1", or "" for the first
// one present) and binds the device address on it.
func OpenI2C(device string, addr uint16, timeout time.Duration) (*I2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %v", ErrTransport, err)
	}
	b, err := i2creg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrTransport, device, err)
	}
	log.Infof("i2c adapter %q open, device address 0x%02X", device, addr)
	return &I2C{
		bus: b,
		dev: i2c.Dev{Bus: b, Addr: addr},
		arb: newArbiter(timeout),
	}, nil
}

func (t *I2C) ReadReg(reg uint8, buf []byte) error {
	if err := t.arb.acquire(); err != nil {
		return err
	}
	defer t.arb.release()
	if err := t.dev.Tx([]byte{reg}, buf); err != nil {
		return fmt.Errorf("%w: read reg 0x%02X: %v", ErrTransport, reg, err)
	}
	return nil
}

func (t *I2C) WriteReg(reg uint8, data []byte) error {
	if err := t.arb.acquire(); err != nil {
		return err
	}
	defer t.arb.release()
	if err := t.dev.Tx(append([]byte{reg}, data...), nil); err != nil {
		return fmt.Errorf("%w: write reg 0x%02X: %v", ErrTransport, reg, err)
	}
	return nil
}

func (t *I2C) Close() error {
	return t.bus.Close()
}
