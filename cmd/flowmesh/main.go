// Command flowmesh runs and validates declarative flow definitions.
//
// Usage:
//
//	flowmesh run -f flow.yaml [--json] [--metrics-addr :9090]
//	flowmesh validate -f flow.yaml
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/definition"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/metrics"
	"github.com/hupe1980/flowmesh/model"
	"github.com/hupe1980/flowmesh/model/anthropic"
	"github.com/hupe1980/flowmesh/model/openai"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "flowmesh",
		Short:         "Run multi-agent flows from YAML definitions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd(), newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		file        string
		jsonOutput  bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a flow definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := definition.Load(file)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(logging.DefaultLoggerConfig()).WithComponent("cli")

			var flowOpts []func(o *flow.Options)
			flowOpts = append(flowOpts, func(o *flow.Options) {
				o.Logger = logger
			})

			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				collector := metrics.NewCollector(reg)
				flowOpts = append(flowOpts, func(o *flow.Options) {
					o.Observers = append(o.Observers, collector)
				})

				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
						logger.Error("metrics server failed", "error", err)
					}
				}()
			}

			orch, err := def.Compile(func(o *definition.CompileOptions) {
				o.Models = availableModels()
				o.FlowOptions = flowOpts
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := orch.Run(ctx, def.Shared)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			counts := result.Counts()
			fmt.Printf("Flow %s finished: %s (%d succeeded, %d failed, %d skipped) in %s\n",
				def.Name, result.Status,
				counts[core.AgentSucceeded], counts[core.AgentFailed], counts[core.AgentSkipped],
				result.Duration.Round(time.Millisecond))
			for _, out := range result.Outcomes {
				line := fmt.Sprintf("  %-12s %s", out.Status, out.AgentID)
				if out.Error != "" {
					line += ": " + out.Error
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the flow definition YAML")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the flow runs")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a flow definition without running it",
		RunE: func(_ *cobra.Command, _ []string) error {
			def, err := definition.Load(file)
			if err != nil {
				return err
			}
			// Referenced models are stubbed so structural validation does
			// not require provider credentials.
			models := availableModels()
			for _, a := range def.Agents {
				if a.Type == "generator" {
					if _, ok := models[a.Model]; !ok {
						models[a.Model] = model.NewMockModel(a.Model, "validation")
					}
				}
			}

			if _, err := def.Compile(func(o *definition.CompileOptions) {
				o.Models = models
			}); err != nil {
				return err
			}
			fmt.Printf("Definition %s is valid (%d agents)\n", def.Name, len(def.Agents))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the flow definition YAML")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// availableModels exposes providers whose credentials are present in the
// environment, so definitions can reference them by name.
func availableModels() map[string]model.Model {
	models := make(map[string]model.Model)
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		models["anthropic"] = anthropic.NewModel()
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		models["openai"] = openai.NewModel()
	}
	return models
}
