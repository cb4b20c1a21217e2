package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models offered by the generation service",
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	transport, err := newTransport(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	models, err := transport.Models(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, m := range models {
		marker := " "
		if m == cfg.Generation.DefaultModel {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, m)
	}
	return nil
}
