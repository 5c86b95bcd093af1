package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/company-analyzer/internal/cache"
	"github.com/sells-group/company-analyzer/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage cached profiles and answers",
}

var evictQuestion string

var cacheEvictCmd = &cobra.Command{
	Use:   "evict <url>",
	Short: "Remove a cached company profile, or one cached answer with --question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		key, err := evictionKey(args[0], evictQuestion)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, config.ModeCache, envNeeds{cache: true})
		if err != nil {
			return err
		}
		defer env.Close()

		removed, err := env.Cache.Delete(ctx, key)
		if err != nil {
			return eris.Wrap(err, "cache evict")
		}
		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), "evicted %s\n", key)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "no entry for %s\n", key)
		}
		return nil
	},
}

var cacheKeyCmd = &cobra.Command{
	Use:   "key <url>",
	Short: "Print the cache key for a URL, or for a question with --question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := evictionKey(args[0], evictQuestion)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

// evictionKey resolves the cache key for a URL and optional question.
func evictionKey(rawURL, question string) (string, error) {
	if question != "" {
		return cache.QuestionKey(rawURL, question)
	}
	return cache.CompanyKey(rawURL)
}

func init() {
	cacheEvictCmd.Flags().StringVar(&evictQuestion, "question", "", "evict the cached answer to this question instead of the profile")
	cacheKeyCmd.Flags().StringVar(&evictQuestion, "question", "", "print the key of this question instead of the profile")
	cacheCmd.AddCommand(cacheEvictCmd, cacheKeyCmd)
	rootCmd.AddCommand(cacheCmd)
}
