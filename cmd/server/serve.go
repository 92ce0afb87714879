package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/server"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the codecoach HTTP server",
	Long: `Start the HTTP API. Lessons, exercises and /api/execute are public;
progress and submissions need a session.

Examples:
  codecoach serve
  codecoach serve --port 9090
  CODECOACH_EXECUTOR_BACKEND=docker codecoach serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	logger := newLogger(cfg.Log, os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exec, closeExec, err := server.NewExecutor(cfg.Executor, executor.NewMetrics(reg), logger)
	if err != nil {
		return err
	}
	defer closeExec()

	srv, err := server.New(cfg, exec, reg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Start()
}
