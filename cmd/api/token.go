package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/middleware"
)

var tokenFlags struct {
	role    string
	session string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for a role",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVarP(&tokenFlags.role, "role", "r", "", "role name (required)")
	f.StringVarP(&tokenFlags.session, "session", "s", "", "session id (random when empty)")
	f.DurationVar(&tokenFlags.ttl, "ttl", 0, "token lifetime (defaults to auth.tokenTTL)")
	_ = tokenCmd.MarkFlagRequired("role")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := cfg.RoleTable()
	if err != nil {
		return err
	}
	if !table.Has(tokenFlags.role) {
		return fmt.Errorf("unknown role %q (known: %v)", tokenFlags.role, table.Names())
	}

	session := tokenFlags.session
	if session == "" {
		session = uuid.NewString()
	}
	ttl := tokenFlags.ttl
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}
	tok, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), session, tokenFlags.role, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
