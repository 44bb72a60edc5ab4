package main

import (
	"fmt"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TerryYan26/RTOS/internal/config"
	"github.com/TerryYan26/RTOS/internal/server"
)

var defaultTableValue = [][]string{{"Field", "Value", "Unit"}}

func getTable() *widgets.Table {
	table := widgets.NewTable()
	table.Rows = defaultTableValue
	table.ColumnWidths = []int{16, 40, 12}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.TextAlignment = ui.AlignRight
	table.SetRect(0, 0, 80, 28)
	return table
}

func printVec(x, y, z float64) string {
	return fmt.Sprintf("%8.3f, %8.3f, %8.3f", x, y, z)
}

func updateValue(opt *config.SensorDOpt, table *widgets.Table) {

	sched, queue, _, err := server.BuildAcquisition(opt)
	if err != nil {
		log.Panicln(err)
	}
	if err := sched.Start(); err != nil {
		log.Warnln(err)
	}

	for smp := range queue.C() {
		stats := sched.GetStats()
		table.Rows = [][]string{
			defaultTableValue[0],
			{"accel", printVec(smp.AccelX, smp.AccelY, smp.AccelZ), "m/s^2"},
			{"gyro", printVec(smp.GyroX, smp.GyroY, smp.GyroZ), "rad/s"},
			{"temperature", fmt.Sprintf("%.2f", smp.Temperature), "degC"},
			{"pressure", fmt.Sprintf("%.2f", smp.Pressure), "hPa"},
			{"humidity", fmt.Sprintf("%.2f", smp.Humidity), "%RH"},
			{"valid", fmt.Sprintf("%v", smp.Valid), ""},
			{"samples", fmt.Sprintf("%d", stats.SampleCount), ""},
			{"errors", fmt.Sprintf("%d", stats.ErrorCount), ""},
			{"rate", fmt.Sprintf("%.1f", stats.SampleRate), "Hz"},
			{"state", stats.State.String(), ""},
		}
		ui.Render(table)
	}
}

func _main(cmd *cobra.Command, args []string) {
	log.Info("Starting")
	if err := ui.Init(); err != nil {
		log.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()

	t := getTable()
	opt := server.NewMainApp(cmd, args).PrepareRun().GetOpt()
	go updateValue(opt, t)

	uiEvents := ui.PollEvents()
	for {
		e := <-uiEvents
		switch e.ID {
		case "q", "<C-c>":
			return
		}
	}

}

var rootCmd = &cobra.Command{
	Use:   "acq_monitor",
	Short: "live view of the acquisition stream",
	Long:  "live view of the acquisition stream",
	Run: func(cmd *cobra.Command, args []string) {
		_main(cmd, args)
	},
}

func main() {
	rootCmd.Flags().String("config", "", "default configuration path")
	rootCmd.Flags().StringP("backend", "b", config.DefaultBusBackend, "bus backend to use, sim or i2c")
	rootCmd.Flags().StringP("dev", "d", config.DefaultBusDevice, "i2c adapter the sensor sits on")
	rootCmd.Flags().IntP("rate", "r", config.DefaultSampleRateHz, "acquisition sample rate in Hz")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	err := rootCmd.Execute()
	if err != nil {
		return
	}
}
