package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TerryYan26/RTOS/internal/config"
	"github.com/TerryYan26/RTOS/internal/server"
	"github.com/TerryYan26/RTOS/pkg/version"
)

var RootCmd = &cobra.Command{
	Use:   "sensord",
	Short: "sensor acquisition daemon of the RTOS sensor node",
	Long:  "sensor acquisition daemon of the RTOS sensor node",
}

func ServeCmdRunE(cmd *cobra.Command, args []string) error {
	server.NewMainApp(cmd, args).PrepareRun().Run()
	return nil
}

func ServeCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().StringP("backend", "b", config.DefaultBusBackend, "bus backend to use, sim or i2c")
	cmd.Flags().StringP("dev", "d", config.DefaultBusDevice, "i2c adapter the sensor sits on")
	cmd.Flags().Int("addr", config.DefaultBusAddr, "i2c address of the sensor")
	cmd.Flags().IntP("rate", "r", config.DefaultSampleRateHz, "acquisition sample rate in Hz")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

var ServeCmd = &cobra.Command{
	Use: "serve",
	SuggestFor: []string{
		"ru", "ser",
	},
	Short: "serve starts the acquisition daemon using predefined configs.",
	Long: `serve starts the acquisition daemon using predefined configs, by the following order:
1. path specified in --config flag
2. path defined in SENSORD_CONFIG environment variable
3. default location $HOME/.config/sensord/config.yaml, /etc/sensord/config.yaml, current directory
The parameters in the configuration file will be overwritten by the following order:
1. command line arguments
2. environment variables
`,
	Example: `  sensord serve --config=/path/to/config
  sensord serve --backend=i2c --dev=/dev/i2c-1 --rate=100`,
	RunE: ServeCmdRunE,
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output directory")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init create a configuration template",
	Long: `init create a configuration template.
The configuration file can be used to launch the acquisition daemon.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to $HOME/.config/sensord/config.yaml
If --yes / -y flag is present, the configuration will be overwrite without confirmation
`,
	Example: `  sensord init --print
  sensord init --output /path/to/config.yaml
  sensord init -o /path/to/config.yaml -y`,
	RunE: config.InitCfg,
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short: "probe the configured bus for the motion sensor",
	Long: `probe the configured bus for the motion sensor.
The probe command opens the bus, reads the identity register and reports
whether an LSM6DSL answered at the configured address.
`,
	Example: `  sensord probe --backend=i2c --dev=/dev/i2c-1`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = server.NewMainApp(cmd, args).PrepareRun().ProbeSensor()
	},
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GitVersion)
	},
}

func getRootCmd() *cobra.Command {

	ServeCmdFlags(ServeCmd)
	RootCmd.AddCommand(ServeCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	ServeCmdFlags(ProbeCmd)
	RootCmd.AddCommand(ProbeCmd)

	RootCmd.AddCommand(VersionCmd)

	return RootCmd
}

func Execute() {
	rootCmd := getRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Errorln(err)
		os.Exit(1)
	}
}
