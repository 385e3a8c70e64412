package main

import (
	"os"

	"github.com/joho/godotenv"

	"optioneer/cmd/optioneer/cmd"
)

func main() {
	// Credentials come from the environment; a local .env is a
	// convenience, not a requirement.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
