package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meetfold/meetfold/internal/assistant"
	"github.com/meetfold/meetfold/internal/calendar"
	"github.com/meetfold/meetfold/internal/config"
	"github.com/meetfold/meetfold/internal/google"
	"github.com/meetfold/meetfold/internal/instrumentation"
	"github.com/meetfold/meetfold/internal/logging"
	"github.com/meetfold/meetfold/internal/openai"
)

// defaultQuery is used when ask is invoked without arguments.
const defaultQuery = "Schedule a team meeting next Monday at 2 PM for 1 hour with alice@example.com and bob@example.com"

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [request...]",
		Short: "Ask the assistant to schedule a meeting",
		Long: `Send a natural-language scheduling request to the assistant. The
assistant interprets the request and creates a Google Calendar event,
inviting any attendees it identifies.

Without arguments an example request is used:

  ` + defaultQuery,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := defaultQuery
			if len(args) > 0 {
				query = strings.Join(args, " ")
			}
			return runAsk(query)
		},
	}

	return cmd
}

func runAsk(query string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	log := logging.DefaultLogger()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		_ = provider.Shutdown(ctx)
	}()

	creds, err := google.LoadCredentials(cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to load Google credentials: %w", err)
	}
	if !creds.HasToken() {
		return fmt.Errorf("no cached OAuth token; run 'meetfold auth' first")
	}
	creds.SetMetrics(provider.Metrics())

	calendarClient, err := calendar.NewClient(ctx, creds, cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to create calendar client: %w", err)
	}

	openaiClient, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, nil, log)
	if err != nil {
		return fmt.Errorf("failed to create assistant client: %w", err)
	}
	openaiClient.SetMetrics(provider.Metrics())

	orch, err := assistant.New(ctx, assistant.Config{
		Model:        cfg.Model,
		PollInterval: cfg.PollInterval,
		RunTimeout:   cfg.RunTimeout,
	}, openaiClient, calendarClient, log.Logger())
	if err != nil {
		return fmt.Errorf("failed to set up assistant: %w", err)
	}
	orch.SetMetrics(provider.Metrics())

	reply, err := orch.Run(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}
