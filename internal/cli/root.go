package cli

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return NewRoot().Execute()
}

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "mirror",
		Short:         "Local tooling for the federation mirror and resonance evaluator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		AnalyzeCmd(),
		EvaluateCmd(),
		QueueCmd(),
	)
	return root
}
