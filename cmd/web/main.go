package main

import (
	"os"

	"tourbook_backend/internal/logger"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
