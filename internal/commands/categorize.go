package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banklens/banklens/internal/categorize"
)

func newCategorizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <description...>",
		Short: "Print the category a transaction description falls into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.categorizer()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Categorize(strings.Join(args, " ")))
			return nil
		},
	}
}

func newRulesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List categorization rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.categorizer()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rules := c.Rules()
			for i, r := range rules {
				fmt.Fprintf(out, "%d. %s: %s\n", i+1, r.Label, strings.Join(r.Keywords, ", "))
			}
			fmt.Fprintf(out, "%d. %s: (no match)\n", len(rules)+1, categorize.Uncategorized)
			return nil
		},
	}
}
