package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	appinsights "github.com/swethakommuri/GEN-AI-DEMO/internal/application/insights"
)

var insightsFlags struct {
	role         string
	client       string
	model        string
	kinds        []string
	instructions string
	workers      int
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate insights for one role and client and print them as JSON",
	RunE:  runInsights,
}

func init() {
	f := insightsCmd.Flags()
	f.StringVarP(&insightsFlags.role, "role", "r", "", "role name (required)")
	f.StringVar(&insightsFlags.client, "client", "", "client name (required)")
	f.StringVarP(&insightsFlags.model, "model", "m", "", "model name (defaults to the configured model)")
	f.StringSliceVarP(&insightsFlags.kinds, "kind", "k", nil, "analysis kinds to run (default all of the role)")
	f.StringVar(&insightsFlags.instructions, "instructions", "", "additional instructions appended to every prompt")
	f.IntVarP(&insightsFlags.workers, "workers", "w", 0, "kinds generated in parallel")
	_ = insightsCmd.MarkFlagRequired("role")
	_ = insightsCmd.MarkFlagRequired("client")
}

func runInsights(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	role, err := a.roles.Get(insightsFlags.role)
	if err != nil {
		return fmt.Errorf("%w (known: %v)", err, a.roles.Names())
	}
	client, err := a.clients.Lookup(insightsFlags.client, role)
	if err != nil {
		return err
	}
	model := insightsFlags.model
	if model == "" {
		model = cfg.Generation.DefaultModel
	}
	workers := insightsFlags.workers
	if workers <= 0 {
		workers = cfg.Insights.Workers
	}

	batch, err := a.insights.GenerateConcurrent(ctx, appinsights.Request{
		SessionID:          "cli",
		Role:               role,
		Client:             client,
		Model:              model,
		Kinds:              insightsFlags.kinds,
		CustomInstructions: insightsFlags.instructions,
		MaxRetries:         cfg.Generation.MaxRetries,
		Timeout:            cfg.Generation.Timeout,
	}, workers)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return err
	}
	if batch.Unavailable {
		return fmt.Errorf("generation service unavailable")
	}
	return nil
}
