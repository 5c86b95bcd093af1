package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select <url>",
	Short: "Show which extractor a URL would use, without fetching it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, err := initSelector()
		if err != nil {
			return err
		}

		kind, group, err := selector.Explain(args[0])
		if err != nil {
			return err
		}
		if group == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", kind)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (matched %s)\n", kind, group)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
