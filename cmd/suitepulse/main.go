// Package main is the entry point for the suitepulse application
package main

import (
	"github.com/suitepulse/suitepulse/cmd"
)

func main() {
	cmd.Execute()
}
