package main

import (
	"os"

	"gridscape/cmd"
)

// @title        Gridscape API
// @version      1.0
// @description  Text rewrite service backed by an ordered LLM cascade.
// @BasePath     /
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
