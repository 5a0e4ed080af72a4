package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	good = color.New(color.FgGreen)
	bad  = color.New(color.FgRed)
	info = color.New(color.FgCyan)
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
