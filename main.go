package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/roguegoose-dev/goose-guidance/cmd"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
