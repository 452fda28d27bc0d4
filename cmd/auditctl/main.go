package main

import (
	"os"

	"github.com/docarchive/backend/internal/config"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()

	cfg := config.Load()
	err := newRootCmd(cfg, log).Execute()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}
