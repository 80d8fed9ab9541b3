package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mira.app/federation/internal/mirror"
)

func AnalyzeCmd() *cobra.Command {
	var (
		target     string
		rulesPath  string
		exportPath string
		applyPath  string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run the mirror heuristics over a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			analyzer := mirror.NewAnalyzer()
			if rulesPath != "" {
				checks, err := loadRules(rulesPath)
				if err != nil {
					return err
				}
				analyzer.Register(checks...)
			}

			if target == "" {
				target = filepath.Base(args[0])
			}
			proposal, err := analyzer.Propose(string(code), target, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, proposal); err != nil {
					return err
				}
			} else if len(proposal.Issues) == 0 {
				fmt.Fprintln(out, okStyle.Render("ok: no suggestions for "+proposal.TargetFile))
			} else {
				fmt.Fprintln(out, renderIssues(proposal))
			}

			if exportPath != "" {
				b, err := json.MarshalIndent(proposal, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(exportPath, b, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", exportPath, err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("proposal written to "+exportPath))
			}

			if applyPath != "" {
				patched, err := mirror.Apply(string(code), proposal.Changes)
				if err != nil {
					return err
				}
				if err := os.WriteFile(applyPath, []byte(patched), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", applyPath, err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("patched source written to "+applyPath))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Target file name recorded in the proposal (default: base name of <file>)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML file with additional checks")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write the proposal JSON to this path")
	cmd.Flags().StringVar(&applyPath, "apply", "", "Write the source with insert_if_absent changes applied to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the proposal as JSON")
	return cmd
}

func loadRules(path string) ([]mirror.Check, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()

	checks, err := mirror.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", path, err)
	}
	return checks, nil
}
