package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/rent-recon/cmd/ingest"
	"fjacquet/rent-recon/cmd/invoices"
	"fjacquet/rent-recon/cmd/mapping"
	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/cmd/serve"
	"fjacquet/rent-recon/cmd/status"
	"fjacquet/rent-recon/cmd/tenants"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func init() {
	// Environment first, so RENTRECON_LOG_LEVEL applies before anything logs.
	loadEnvSilently()
	configureLogLevelDirectly()

	root.Init()

	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(mapping.Cmd)
	root.Cmd.AddCommand(tenants.Cmd)
	root.Cmd.AddCommand(status.Cmd)
	root.Cmd.AddCommand(invoices.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

// loadEnvSilently loads a .env file from the working directory or its parent
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

// configureLogLevelDirectly sets the global logrus level from the environment
func configureLogLevelDirectly() logrus.Level {
	logLevelStr := os.Getenv("RENTRECON_LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	return logLevel
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
