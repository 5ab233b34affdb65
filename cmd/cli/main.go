package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/effectiveacceleration/marketplace/cmd/cli/commands"
)

func main() {
	// Load .env so EACC_* variables can live next to the binary
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
