package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run [file|-]",
	Short: "Run a JavaScript snippet through the configured sandbox",
	Long: `Run a snippet exactly as /api/execute would and print its output.
With no argument, or "-", the snippet is read from stdin.

Examples:
  codecoach run hello.js
  echo 'console.log(2 + 2)' | codecoach run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	code, err := readSnippet(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg.Log.Level = "warn"
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	exec, closeExec, err := server.NewExecutor(cfg.Executor, executor.NewMetrics(prometheus.NewRegistry()), logger)
	if err != nil {
		return err
	}
	defer closeExec()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := exec.Execute(ctx, executor.ExecutionRequest{Code: code})
	if err != nil {
		return fmt.Errorf("executing snippet: %w", err)
	}

	return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
}

func readSnippet(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading snippet: %w", err)
	}
	return string(b), nil
}

// printResult writes output to out and the timing line to errOut. A failed
// snippet is returned as an error so the process exits non-zero.
func printResult(out, errOut io.Writer, res *executor.ExecutionResult) error {
	if res.Failed() {
		fmt.Fprintf(errOut, "(%d ms)\n", res.ExecutionTime)
		return fmt.Errorf("%s error: %s", res.Kind, res.Error)
	}

	if res.Output != "" {
		fmt.Fprintln(out, res.Output)
	}
	fmt.Fprintf(errOut, "(%d ms)\n", res.ExecutionTime)
	return nil
}
