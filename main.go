package main

import "github.com/TerryYan26/RTOS/internal/cmd"

func main() {
	cmd.Execute()
}
