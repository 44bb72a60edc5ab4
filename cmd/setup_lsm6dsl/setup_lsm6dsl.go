package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/TerryYan26/RTOS/internal/bus"
	"github.com/TerryYan26/RTOS/internal/config"
	"github.com/TerryYan26/RTOS/internal/sensor/lsm6dsl"
)

var logger = log.New(os.Stdout, "lsm6dsl ", log.LstdFlags)

// configure resets the part and writes one mode profile, reading every
// control register back for verification.
func configure(t bus.Transport, accelODR lsm6dsl.AccelODR, accelFS lsm6dsl.AccelFS, gyroODR lsm6dsl.GyroODR, gyroFS lsm6dsl.GyroFS) error {
	var id [1]byte
	if err := t.ReadReg(lsm6dsl.RegWhoAmI, id[:]); err != nil {
		return err
	}
	if id[0] != lsm6dsl.WhoAmIValue {
		return fmt.Errorf("unexpected WHO_AM_I 0x%02X, want 0x%02X", id[0], lsm6dsl.WhoAmIValue)
	}
	fmt.Printf("WHO_AM_I -> 0x%02X\n", id[0])

	if err := t.WriteReg(lsm6dsl.RegCtrl3C, []byte{lsm6dsl.Ctrl3SWReset}); err != nil {
		return err
	}
	time.Sleep(lsm6dsl.ResetSettle)

	regs := []struct {
		name string
		reg  uint8
		val  byte
	}{
		{"CTRL1_XL", lsm6dsl.RegCtrl1XL, byte(accelODR) | byte(accelFS)},
		{"CTRL2_G", lsm6dsl.RegCtrl2G, byte(gyroODR) | byte(gyroFS)},
		{"CTRL3_C", lsm6dsl.RegCtrl3C, lsm6dsl.Ctrl3BDU},
	}
	for _, r := range regs {
		if err := t.WriteReg(r.reg, []byte{r.val}); err != nil {
			return err
		}
		var back [1]byte
		if err := t.ReadReg(r.reg, back[:]); err != nil {
			return err
		}
		fmt.Printf("%-8s -> wrote 0x%02X, read back 0x%02X\n", r.name, r.val, back[0])
	}

	return nil
}

func main() {
	backendFlag := flag.String("backend", config.DefaultBusBackend, "bus backend, sim or i2c")
	devFlag := flag.String("dev", config.DefaultBusDevice, "i2c adapter the sensor sits on")
	addrFlag := flag.Int("addr", config.DefaultBusAddr, "i2c address of the sensor")
	accelODRFlag := flag.Int("accel-odr", config.DefaultAccelODRHz, "accelerometer rate in Hz (0, 13, 26, 52, 104)")
	accelFSFlag := flag.Int("accel-fs", config.DefaultAccelFSG, "accelerometer range in g (2, 4, 8, 16)")
	gyroODRFlag := flag.Int("gyro-odr", config.DefaultGyroODRHz, "gyroscope rate in Hz (0, 13, 26, 52, 104)")
	gyroFSFlag := flag.Int("gyro-fs", config.DefaultGyroFSDPS, "gyroscope range in dps (125, 250, 500, 1000, 2000)")

	flag.Parse()

	accelODR, ok := lsm6dsl.AccelODRFromHz(*accelODRFlag)
	if !ok {
		logger.Fatalf("unsupported --accel-odr %d", *accelODRFlag)
	}
	accelFS, ok := lsm6dsl.AccelFSFromG(*accelFSFlag)
	if !ok {
		logger.Fatalf("unsupported --accel-fs %d", *accelFSFlag)
	}
	gyroODR, ok := lsm6dsl.GyroODRFromHz(*gyroODRFlag)
	if !ok {
		logger.Fatalf("unsupported --gyro-odr %d", *gyroODRFlag)
	}
	gyroFS, ok := lsm6dsl.GyroFSFromDPS(*gyroFSFlag)
	if !ok {
		logger.Fatalf("unsupported --gyro-fs %d", *gyroFSFlag)
	}

	t, err := bus.Open(config.BusOpt{
		Backend:   *backendFlag,
		Device:    *devFlag,
		Addr:      *addrFlag,
		TimeoutMS: config.DefaultBusTimeoutMS,
	})
	if err != nil {
		logger.Fatal(err)
	}
	defer func() { _ = t.Close() }()

	if err := configure(t, accelODR, accelFS, gyroODR, gyroFS); err != nil {
		logger.Fatal(err)
	}
}
