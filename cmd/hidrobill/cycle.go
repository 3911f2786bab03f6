package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hidrobill/hidrobill/internal/config"
	cyclesvc "github.com/hidrobill/hidrobill/internal/service/cycle"
	pgstore "github.com/hidrobill/hidrobill/internal/storage/postgres"
)

// newCycleCmd runs one monthly billing cycle against the configured Postgres
// store and exits. Meant for cron; the HTTP endpoint does the same job.
func newCycleCmd() *cobra.Command {
	var asOfStr string
	c := &cobra.Command{
		Use:   "generate-charges",
		Short: "Generate monthly charges for all active flat-rate clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("cycle requires DATABASE_URL")
			}
			logger := buildLogger(cfg)
			slog.SetDefault(logger)

			asOf := time.Now().UTC()
			if asOfStr != "" {
				t, err := time.Parse("2006-01-02", asOfStr)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				asOf = t.UTC()
			}

			ctx := cmd.Context()
			pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pg.Close()

			res, err := cyclesvc.New(pg, pg, logger).GenerateMonthlyCharges(ctx, asOf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: created=%d skipped=%d errors=%d\n",
				res.CycleKey, len(res.Created), res.Skipped, len(res.Errors))
			for _, ie := range res.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  client %s: %s: %v\n", ie.ClientID, ie.Code, ie.Err)
			}
			return nil
		},
	}
	c.Flags().StringVar(&asOfStr, "as-of", "", "billing date (YYYY-MM-DD, default today)")
	return c
}
