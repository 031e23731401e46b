// Package cli implements nuvioctl, an offline tool over the scoring catalog and
// exported data snapshots.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var Version = "0.1.0"

type rootOptions struct {
	format string
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "nuvioctl",
		Short: "Inspect questionnaires and wellbeing snapshots",
		Long: `nuvioctl works offline against the built-in questionnaire catalog and the JSON
snapshots written by the Nuvio server's memory store.

Examples:
  nuvioctl questions phq9
  nuvioctl score who5 --answers 3,3,3,3,3
  nuvioctl insights --snapshot data/nuvio.json --user u1 --days 7
  nuvioctl report --snapshot data/nuvio.json --user u1 --text
  nuvioctl export moods --snapshot data/nuvio.json --user u1`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.format, "format", "yaml", "Output format (yaml|json)")

	root.AddCommand(
		newQuestionsCmd(opts),
		newScoreCmd(opts),
		newInsightsCmd(opts),
		newReportCmd(opts),
		newExportCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) write(w io.Writer, v any) error {
	switch strings.ToLower(o.format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", o.format)
	}
}
