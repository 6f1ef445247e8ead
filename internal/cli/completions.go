package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/google/pg-page-verification/internal/config"
)

var (
	outputFormats = []string{config.OutputText, config.OutputJSON}
	byteOrders    = []string{"native", "little", "big"}
)

// completeFrom returns a completion function over a fixed set of values.
func completeFrom(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				matches = append(matches, v)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}

func registerCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", completeFrom(outputFormats))
	_ = cmd.RegisterFlagCompletionFunc("byte-order", completeFrom(byteOrders))
	_ = cmd.MarkFlagDirname("datadir")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")
}
