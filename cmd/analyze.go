package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/company-analyzer/internal/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Build the business profile for a company website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeAnalyze, envNeeds{cache: true, llm: true})
		if err != nil {
			return err
		}
		defer env.Close()

		details, err := env.Analyzer.Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), details)
	},
}

var questionCmd = &cobra.Command{
	Use:   "question <url> <question>",
	Short: "Answer a question about the company behind a website",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeQuestion, envNeeds{cache: true, llm: true, search: true})
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Answerer.Answer(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var askTemperature float64

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question without website context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeAsk, envNeeds{llm: true})
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Asker.Ask(ctx, args[0], askTemperature)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	askCmd.Flags().Float64Var(&askTemperature, "temperature", 0, "sampling temperature in [0,1]")
	rootCmd.AddCommand(analyzeCmd, questionCmd, askCmd)
}
