// Package main is the entry point for the duometrics CLI tool, which syncs a
// TFT Double Up duo's shared match history and computes coaching analytics.
package main

import "github.com/pable/tft-duo-metrics/cmd"

func main() {
	cmd.Execute()
}
