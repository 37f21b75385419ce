package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expensedecoder/api/config"
	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/services"
)

func newAnalyzeCommand(configPath *string) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate and store insights for one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateCore(); err != nil {
				return err
			}

			store, err := openStore(cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := services.NewInsightService(store, store, services.NewAIGatewayService(cfg))
			result, err := svc.Generate(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("generating insights: %w", err)
			}

			out, err := json.MarshalIndent(models.AnalyzeResponse{
				Insights:  result.Insights,
				Outcome:   string(result.Outcome),
				Persisted: result.Persisted,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
