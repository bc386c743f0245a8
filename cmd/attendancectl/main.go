package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"attendancetracker/internal/cli"
	"attendancetracker/internal/config"
)

func main() {
	_ = godotenv.Load()

	apiURL := "http://localhost:8081"
	if cfg, err := config.Load(); err == nil && cfg.APIURL != "" {
		apiURL = cfg.APIURL
	}

	if err := cli.NewRootCommand(apiURL).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
