package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meetfold/meetfold/internal/config"
	"github.com/meetfold/meetfold/internal/google"
	"github.com/meetfold/meetfold/internal/instrumentation"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: `Run the OAuth consent flow for Google Calendar. A browser URL is
printed; after you grant access, the token is cached on disk and reused
by later commands until it expires or is revoked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth()
		},
	}
}

func runAuth() error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	creds, err := google.LoadCredentials(cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to load Google credentials: %w", err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		_ = provider.Shutdown(ctx)
	}()
	creds.SetMetrics(provider.Metrics())

	if creds.HasToken() {
		if _, err := creds.Token(ctx); err == nil {
			fmt.Println("Already authorized; cached token is valid.")
			return nil
		}
		// Cached token no longer refreshes, run the consent flow again
	}

	if _, err := creds.Authorize(ctx); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	fmt.Printf("Authorization complete. Token saved to %s\n", cfg.TokenFile)
	return nil
}
