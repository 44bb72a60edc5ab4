package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/TerryYan26/RTOS/internal/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DefaultAppName = "sensord"
const DefaultConfigName = "config"

// Bus backends selectable via bus.backend.
const (
	BusBackendSim = "sim"
	BusBackendI2C = "i2c"
)

const (
	DefaultBusBackend   = BusBackendSim
	DefaultBusDevice    = "/dev/i2c-1"
	DefaultBusAddr      = 0x6A
	DefaultBusTimeoutMS = 100

	DefaultAccelODRHz = 104
	DefaultAccelFSG   = 2
	DefaultGyroODRHz  = 104
	DefaultGyroFSDPS  = 250

	DefaultSampleRateHz  = 100
	DefaultMaxFailures   = 3
	DefaultStatsWindowMS = 1000
	DefaultQueueDepth    = 10
	DefaultEnqueueWaitMS = 10
)

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config/"+DefaultAppName+"/"+DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"
const DefaultConfigSearchPath3 = "/config"

type BusOpt struct {
	Backend   string `yaml:"backend" mapstructure:"backend"`
	Device    string `yaml:"device" mapstructure:"device"`
	Addr      int    `yaml:"addr" mapstructure:"addr"`
	TimeoutMS int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

type IMUOpt struct {
	AccelODRHz int  `yaml:"accel_odr_hz" mapstructure:"accel_odr_hz"`
	AccelFSG   int  `yaml:"accel_fs_g" mapstructure:"accel_fs_g"`
	GyroODRHz  int  `yaml:"gyro_odr_hz" mapstructure:"gyro_odr_hz"`
	GyroFSDPS  int  `yaml:"gyro_fs_dps" mapstructure:"gyro_fs_dps"`
	FIFOEnable bool `yaml:"fifo_enable" mapstructure:"fifo_enable"`
}

type AcquisitionOpt struct {
	SampleRateHz  int `yaml:"sample_rate_hz" mapstructure:"sample_rate_hz"`
	MaxFailures   int `yaml:"max_failures" mapstructure:"max_failures"`
	StatsWindowMS int `yaml:"stats_window_ms" mapstructure:"stats_window_ms"`
	QueueDepth    int `yaml:"queue_depth" mapstructure:"queue_depth"`
	EnqueueWaitMS int `yaml:"enqueue_wait_ms" mapstructure:"enqueue_wait_ms"`
}

type SensorDOpt struct {
	Bus         BusOpt         `yaml:"bus" mapstructure:"bus"`
	IMU         IMUOpt         `yaml:"imu" mapstructure:"imu"`
	Acquisition AcquisitionOpt `yaml:"acquisition" mapstructure:"acquisition"`
	Debug       bool           `yaml:"debug" mapstructure:"debug"`
}

type SensorDDesc struct {
	Opt   SensorDOpt
	Viper *viper.Viper
}

func NewSensorDDesc() SensorDDesc {
	return SensorDDesc{
		Opt:   NewSensorDOpt(),
		Viper: nil,
	}
}

func NewSensorDOpt() SensorDOpt {
	return SensorDOpt{
		Bus: BusOpt{
			Backend:   DefaultBusBackend,
			Device:    DefaultBusDevice,
			Addr:      DefaultBusAddr,
			TimeoutMS: DefaultBusTimeoutMS,
		},
		IMU: IMUOpt{
			AccelODRHz: DefaultAccelODRHz,
			AccelFSG:   DefaultAccelFSG,
			GyroODRHz:  DefaultGyroODRHz,
			GyroFSDPS:  DefaultGyroFSDPS,
			FIFOEnable: false,
		},
		Acquisition: AcquisitionOpt{
			SampleRateHz:  DefaultSampleRateHz,
			MaxFailures:   DefaultMaxFailures,
			StatsWindowMS: DefaultStatsWindowMS,
			QueueDepth:    DefaultQueueDepth,
			EnqueueWaitMS: DefaultEnqueueWaitMS,
		},
		Debug: false,
	}
}

func (o *SensorDDesc) Parse(cmd *cobra.Command) error {
	vipCfg := viper.New()
	vipCfg.SetDefault("bus.backend", DefaultBusBackend)
	vipCfg.SetDefault("bus.device", DefaultBusDevice)
	vipCfg.SetDefault("bus.addr", DefaultBusAddr)
	vipCfg.SetDefault("bus.timeout_ms", DefaultBusTimeoutMS)
	vipCfg.SetDefault("imu.accel_odr_hz", DefaultAccelODRHz)
	vipCfg.SetDefault("imu.accel_fs_g", DefaultAccelFSG)
	vipCfg.SetDefault("imu.gyro_odr_hz", DefaultGyroODRHz)
	vipCfg.SetDefault("imu.gyro_fs_dps", DefaultGyroFSDPS)
	vipCfg.SetDefault("imu.fifo_enable", false)
	vipCfg.SetDefault("acquisition.sample_rate_hz", DefaultSampleRateHz)
	vipCfg.SetDefault("acquisition.max_failures", DefaultMaxFailures)
	vipCfg.SetDefault("acquisition.stats_window_ms", DefaultStatsWindowMS)
	vipCfg.SetDefault("acquisition.queue_depth", DefaultQueueDepth)
	vipCfg.SetDefault("acquisition.enqueue_wait_ms", DefaultEnqueueWaitMS)
	vipCfg.SetDefault("debug", false)

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else {
		configFileEnv := os.Getenv("SENSORD_CONFIG")
		if configFileEnv != "" {
			vipCfg.SetConfigFile(configFileEnv)
		} else {
			vipCfg.SetConfigName(DefaultConfigName)
			vipCfg.SetConfigType("yaml")
			vipCfg.AddConfigPath(DefaultConfigSearchPath0)
			vipCfg.AddConfigPath(DefaultConfigSearchPath1)
			vipCfg.AddConfigPath(DefaultConfigSearchPath2)
			vipCfg.AddConfigPath(DefaultConfigSearchPath3)
		}
	}
	vipCfg.WatchConfig()

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	_ = vipCfg.BindPFlag("bus.backend", cmd.Flags().Lookup("backend"))
	_ = vipCfg.BindPFlag("bus.device", cmd.Flags().Lookup("dev"))
	_ = vipCfg.BindPFlag("bus.addr", cmd.Flags().Lookup("addr"))
	_ = vipCfg.BindPFlag("acquisition.sample_rate_hz", cmd.Flags().Lookup("rate"))
	_ = vipCfg.BindPFlag("debug", cmd.Flags().Lookup("debug"))

	// If a config file is found, read it in.
	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else {
		log.Warnln(err)
	}

	if err := vipCfg.Unmarshal(&o.Opt); err != nil {
		log.Fatalln("failed to unmarshal config")
		os.Exit(1)
	}

	o.Viper = vipCfg
	return nil
}

func (o *SensorDDesc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func (o *SensorDDesc) SaveConfig() error {
	if o.Viper == nil {
		return errors.New("viper is nil")
	}
	f, err := os.OpenFile(o.Viper.ConfigFileUsed(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	defer func() { _ = f.Close() }()
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	s, _ := yaml.Marshal(o.Opt)
	_, err = w.Write(s)
	if err != nil {
		return err
	}
	_ = w.Flush()
	return nil
}

// InitCfg prepares a configuration file for the application
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	desc := NewSensorDDesc()
	err := desc.Parse(cmd)
	if err != nil {
		log.Errorln(err)
		return err
	}

	if printFlag {
		configBuffer, _ := yaml.Marshal(desc.Opt)
		fmt.Println(string(configBuffer))
	} else {
		utils.DumpOption(desc.Opt, outputPath, overwriteFlag)
	}
	return nil
}
