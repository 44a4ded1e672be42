package main

import (
	"fmt"
	"os"

	"github.com/Nith567/okx-dex-mcp/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is a convenience, not a requirement.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
