package lsm6dsl

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/TerryYan26/RTOS/internal/bus"
	"github.com/TerryYan26/RTOS/internal/sensor"
)

// ErrIdentityMismatch means the WHO_AM_I register did not answer with the
// LSM6DSL device ID during initialization.
var ErrIdentityMismatch = errors.New("lsm6dsl identity mismatch")

// Gravity is standard gravity in m/s^2, used to convert accelerometer
// counts to acceleration.
const Gravity = 9.80665

// ResetSettle is how long the part needs after a software reset before
// further register access.
const ResetSettle = 10 * time.Millisecond

// Config selects the operating mode written during Init. The full-scale
// selectors also determine the sensitivities used for unit conversion.
type Config struct {
	AccelODR   AccelODR
	AccelFS    AccelFS
	GyroODR    GyroODR
	GyroFS     GyroFS
	FIFOEnable bool
}

// Device is the register-level protocol for one LSM6DSL behind a bus
// transport. The only state beyond the transport handle is the pair of
// sensitivity coefficients cached at Init. Every register access is an
// independent bus transaction, and transport errors surface unchanged;
// retry policy belongs to the caller.
type Device struct {
	t   bus.Transport
	cfg Config

	accelSens float64 // mg/LSB
	gyroSens  float64 // mdps/LSB
	id        byte
}

func New(t bus.Transport, cfg Config) *Device {
	return &Device{
		t:         t,
		cfg:       cfg,
		accelSens: 0.061, // power-on ±2g
		gyroSens:  8.75,  // power-on ±250dps
	}
}

// Init brings the device into the configured mode: identity check, soft
// reset plus settle delay, accelerometer and gyroscope mode registers,
// block data update. The cached sensitivities are recomputed from the
// configured full scales last, so a failed Init leaves the previous pair
// in place.
func (d *Device) Init() error {
	id, err := d.WhoAmI()
	if err != nil {
		return err
	}
	if id != WhoAmIValue {
		return fmt.Errorf("%w: WHO_AM_I 0x%02X, want 0x%02X", ErrIdentityMismatch, id, WhoAmIValue)
	}
	d.id = id

	if err := d.SoftReset(); err != nil {
		return err
	}
	time.Sleep(ResetSettle)

	if err := d.writeReg(RegCtrl1XL, byte(d.cfg.AccelODR)|byte(d.cfg.AccelFS)); err != nil {
		return err
	}
	if err := d.writeReg(RegCtrl2G, byte(d.cfg.GyroODR)|byte(d.cfg.GyroFS)); err != nil {
		return err
	}
	// BDU keeps a multi-byte reading from straddling two update cycles
	if err := d.writeReg(RegCtrl3C, Ctrl3BDU); err != nil {
		return err
	}
	if d.cfg.FIFOEnable {
		log.Warnln("lsm6dsl: FIFO requested but not wired, staying in bypass mode")
	}

	d.accelSens = d.cfg.AccelFS.Sensitivity()
	d.gyroSens = d.cfg.GyroFS.Sensitivity()
	return nil
}

// WhoAmI reads the identity register.
func (d *Device) WhoAmI() (byte, error) {
	return d.readReg(RegWhoAmI)
}

// ID returns the identity byte read during the last successful Init.
func (d *Device) ID() byte {
	return d.id
}

// ReadStatus reads STATUS_REG.
func (d *Device) ReadStatus() (Status, error) {
	v, err := d.readReg(RegStatus)
	return Status(v), err
}

// ReadSample polls the status register and, when the device has fresh
// motion data, pulls the whole output block in one burst. No new data is
// not an error: polling faster than the output data rate is expected and
// just returns a sample with DataReady unset.
func (d *Device) ReadSample() (sensor.PhysicalSample, error) {
	var smp sensor.PhysicalSample

	st, err := d.ReadStatus()
	if err != nil {
		return smp, err
	}
	if !st.AccelReady() && !st.GyroReady() {
		return smp, nil
	}

	var raw [BurstLen]byte
	if err := d.t.ReadReg(RegOutTempL, raw[:]); err != nil {
		return smp, err
	}

	// OUT_TEMP, then gyro X/Y/Z, then accel X/Y/Z, little-endian pairs
	rawTemp := I2(raw[0:])
	rawGyro := [3]int16{I2(raw[2:]), I2(raw[4:]), I2(raw[6:])}
	rawAccel := [3]int16{I2(raw[8:]), I2(raw[10:]), I2(raw[12:])}

	smp.Temperature = 25.0 + float64(rawTemp)/256.0
	smp.AccelX = float64(rawAccel[0]) * d.accelSens * Gravity / 1000.0
	smp.AccelY = float64(rawAccel[1]) * d.accelSens * Gravity / 1000.0
	smp.AccelZ = float64(rawAccel[2]) * d.accelSens * Gravity / 1000.0
	smp.GyroX = float64(rawGyro[0]) * d.gyroSens * math.Pi / (180.0 * 1000.0)
	smp.GyroY = float64(rawGyro[1]) * d.gyroSens * math.Pi / (180.0 * 1000.0)
	smp.GyroZ = float64(rawGyro[2]) * d.gyroSens * math.Pi / (180.0 * 1000.0)
	smp.Timestamp = time.Now()
	smp.DataReady = true
	return smp, nil
}

// Enable powers both sense chains up into a fixed 104Hz low-range profile
// or down entirely. The sensitivities cached at Init are never touched,
// so toggling does not change how samples convert.
func (d *Device) Enable(on bool) error {
	if on {
		if err := d.writeReg(RegCtrl1XL, byte(AccelODR104Hz)|byte(AccelFS2G)); err != nil {
			return err
		}
		return d.writeReg(RegCtrl2G, byte(GyroODR104Hz)|byte(GyroFS250DPS))
	}
	if err := d.writeReg(RegCtrl1XL, byte(AccelODRPowerDown)); err != nil {
		return err
	}
	return d.writeReg(RegCtrl2G, byte(GyroODRPowerDown))
}

// SoftReset writes the reset bit. The caller owns the settle delay before
// touching the device again.
func (d *Device) SoftReset() error {
	return d.writeReg(RegCtrl3C, Ctrl3SWReset)
}

// ConfigInterrupt writes the CTRL4_C interrupt routing byte as given.
func (d *Device) ConfigInterrupt(mask byte) error {
	return d.writeReg(RegCtrl4C, mask)
}

// AccelSensitivity returns the cached accelerometer resolution in mg/LSB.
func (d *Device) AccelSensitivity() float64 { return d.accelSens }

// GyroSensitivity returns the cached gyroscope resolution in mdps/LSB.
func (d *Device) GyroSensitivity() float64 { return d.gyroSens }

func (d *Device) readReg(reg uint8) (byte, error) {
	var b [1]byte
	if err := d.t.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Device) writeReg(reg uint8, v byte) error {
	return d.t.WriteReg(reg, []byte{v})
}
