package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TerryYan26/RTOS/internal/acquisition"
	"github.com/TerryYan26/RTOS/internal/bus"
	"github.com/TerryYan26/RTOS/internal/config"
	"github.com/TerryYan26/RTOS/internal/handoff"
	"github.com/TerryYan26/RTOS/internal/sensor"
	"github.com/TerryYan26/RTOS/internal/sensor/lsm6dsl"
	"github.com/TerryYan26/RTOS/pkg/version"
)

type mainApp struct {
	name string
	cmd  *cobra.Command
	args []string
	opt  *config.SensorDOpt
}

// MainApp assembles and runs the daemon once configuration is resolved.
type MainApp interface {
	Run()
	PrepareRun() MainApp
	GetOpt() *config.SensorDOpt
	SetOpt(*config.SensorDOpt)
	ProbeSensor() error
}

func NewMainApp(cmd *cobra.Command, args []string) MainApp {
	return &mainApp{
		cmd:  cmd,
		args: args,
	}
}

func (a *mainApp) GetOpt() *config.SensorDOpt { return a.opt }

func (a *mainApp) SetOpt(opt *config.SensorDOpt) { a.opt = opt }

func (a *mainApp) PrepareRun() MainApp {
	desc := config.NewSensorDDesc()
	err := desc.Parse(a.cmd)
	if err != nil {
		log.Errorln(err)
		os.Exit(1)
		return nil
	}
	desc.PostParse()
	a.opt = &desc.Opt
	a.name = config.DefaultAppName

	return a
}

func (a *mainApp) Run() {
	log.Infoln("version:", version.GitVersion)
	log.Infoln("bus.backend:", a.opt.Bus.Backend)
	log.Infoln("bus.device:", a.opt.Bus.Device)
	log.Infof("bus.addr: 0x%02X", a.opt.Bus.Addr)
	log.Infoln("acquisition.sample_rate_hz:", a.opt.Acquisition.SampleRateHz)
	log.Infoln("acquisition.queue_depth:", a.opt.Acquisition.QueueDepth)
	log.Infoln("debug:", a.opt.Debug)

	sched, queue, transport, err := BuildAcquisition(a.opt)
	if err != nil {
		log.Errorln("failed to assemble acquisition:", err)
		return
	}
	defer func() { _ = transport.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(); err != nil {
		// the scheduler keeps retrying on its own cadence
		log.Errorln(err)
	}
	go acquisition.Daemon(ctx, sched)
	go drain(ctx, queue, sched)

	<-ctx.Done()
	log.Infoln("signal received, shutting down")
	sched.Stop()
}

// ProbeSensor opens the configured bus and checks the identity register.
func (a *mainApp) ProbeSensor() error {
	t, err := bus.Open(a.opt.Bus)
	if err != nil {
		log.Errorln(err)
		return err
	}
	defer func() { _ = t.Close() }()

	dev := lsm6dsl.New(t, deviceConfig(a.opt.IMU))
	log.Infoln("probing for LSM6DSL...")
	id, err := dev.WhoAmI()
	if err != nil {
		log.Errorln(err)
		return err
	}
	if id != lsm6dsl.WhoAmIValue {
		log.Warnf("device answered WHO_AM_I 0x%02X, want 0x%02X", id, lsm6dsl.WhoAmIValue)
		return lsm6dsl.ErrIdentityMismatch
	}
	log.Infof("found LSM6DSL at 0x%02X (WHO_AM_I 0x%02X)", a.opt.Bus.Addr, id)
	return nil
}

// BuildAcquisition opens the configured bus and assembles the driver,
// the hand-off queue and the scheduler around it. The pressure and
// humidity slots are filled with the simulated readers until real parts
// are wired up.
func BuildAcquisition(opt *config.SensorDOpt) (*acquisition.Scheduler, *handoff.Queue, bus.Transport, error) {
	t, err := bus.Open(opt.Bus)
	if err != nil {
		return nil, nil, nil, err
	}
	dev := lsm6dsl.New(t, deviceConfig(opt.IMU))
	queue := handoff.New(opt.Acquisition.QueueDepth,
		time.Duration(opt.Acquisition.EnqueueWaitMS)*time.Millisecond)
	sched := acquisition.New(dev, queue, acquisition.Options{
		SampleRateHz: opt.Acquisition.SampleRateHz,
		MaxFailures:  opt.Acquisition.MaxFailures,
		StatsWindow:  time.Duration(opt.Acquisition.StatsWindowMS) * time.Millisecond,
	}, sensor.NewSimPressure(), sensor.NewSimHumidity())
	return sched, queue, t, nil
}

// deviceConfig maps the human-readable option values onto register
// codes, falling back to the reference mode for anything unsupported.
func deviceConfig(opt config.IMUOpt) lsm6dsl.Config {
	accelODR, ok := lsm6dsl.AccelODRFromHz(opt.AccelODRHz)
	if !ok {
		log.Warnf("unsupported accel ODR %dHz, using 104Hz", opt.AccelODRHz)
		accelODR = lsm6dsl.AccelODR104Hz
	}
	accelFS, ok := lsm6dsl.AccelFSFromG(opt.AccelFSG)
	if !ok {
		log.Warnf("unsupported accel full scale %dg, using 2g", opt.AccelFSG)
		accelFS = lsm6dsl.AccelFS2G
	}
	gyroODR, ok := lsm6dsl.GyroODRFromHz(opt.GyroODRHz)
	if !ok {
		log.Warnf("unsupported gyro ODR %dHz, using 104Hz", opt.GyroODRHz)
		gyroODR = lsm6dsl.GyroODR104Hz
	}
	gyroFS, ok := lsm6dsl.GyroFSFromDPS(opt.GyroFSDPS)
	if !ok {
		log.Warnf("unsupported gyro full scale %ddps, using 250dps", opt.GyroFSDPS)
		gyroFS = lsm6dsl.GyroFS250DPS
	}
	return lsm6dsl.Config{
		AccelODR:   accelODR,
		AccelFS:    accelFS,
		GyroODR:    gyroODR,
		GyroFS:     gyroFS,
		FIFOEnable: opt.FIFOEnable,
	}
}

// drain consumes the hand-off stream in place of the fusion stage and
// keeps a coarse heartbeat in the log.
func drain(ctx context.Context, queue *handoff.Queue, sched *acquisition.Scheduler) {
	var consumed uint64
	lastReport := time.Now()
	for {
		smp, err := queue.Dequeue(ctx)
		if err != nil {
			return
		}
		consumed++
		log.Debugf("sample accel=(%.3f, %.3f, %.3f) gyro=(%.3f, %.3f, %.3f) temp=%.1f press=%.1f hum=%.1f",
			smp.AccelX, smp.AccelY, smp.AccelZ,
			smp.GyroX, smp.GyroY, smp.GyroZ,
			smp.Temperature, smp.Pressure, smp.Humidity)

		if time.Since(lastReport) >= 10*time.Second {
			st := sched.GetStats()
			log.Infof("consumed %d samples, rate %.1f Hz, errors %d, state %s",
				consumed, st.SampleRate, st.ErrorCount, st.State)
			lastReport = time.Now()
		}
	}
}
