package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"Xuunu.homeostasis/internal/models"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute a user's homeostasis score from their latest samples",
	RunE:  handleScore,
}

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Print today's insight for a user, generating it if needed",
	RunE:  handleInsight,
}

func handleScore(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.homeostasis.Calculate(ctx, userID)
	})
}

func handleInsight(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.homeostasis.Insight(ctx, models.InsightRequest{UserID: userID})
	})
}

// withApp runs fn against freshly wired stores and prints its result as JSON.
func withApp(cmd *cobra.Command, fn func(context.Context, *app) (interface{}, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.RequestTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
