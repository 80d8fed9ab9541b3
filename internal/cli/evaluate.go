package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mira.app/federation/internal/resonance"
)

func EvaluateCmd() *cobra.Command {
	var (
		asJSON     bool
		showReport bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate <responses.json>",
		Short: "Score a batch of agent responses",
		Long:  "Score a batch of agent responses. Use - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			batch, err := resonance.DecodeBatch(body)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}

			result := resonance.NewScorer(nil).Evaluate(batch)

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, result)
			case showReport:
				_, err := io.WriteString(out, result.Report)
				return err
			default:
				fmt.Fprintln(out, renderResult(result))
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&showReport, "report", false, "Print the markdown report")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return b, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
