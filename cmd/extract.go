package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
)

var extractKind string

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Fetch a page and print its cleaned text and metadata, without analysis or caching",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := extractorKind(args[0], extractKind)
		if err != nil {
			return err
		}

		breakerCfg := resilience.BreakerConfigFrom(cfg.Resilience.FailureThreshold, cfg.Resilience.CooldownSecs)
		res, err := initExtractors(initJina(), breakerCfg).Extract(cmd.Context(), args[0], kind)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// extractorKind returns the forced kind when one is given, else the
// selector's choice for rawURL.
func extractorKind(rawURL, forced string) (model.ExtractorKind, error) {
	if forced != "" {
		return model.ParseExtractorKind(forced)
	}
	selector, err := initSelector()
	if err != nil {
		return "", err
	}
	return selector.Select(rawURL)
}

func init() {
	extractCmd.Flags().StringVar(&extractKind, "kind", "", "force the extractor (static or scripted) instead of selecting one")
	rootCmd.AddCommand(extractCmd)
}
