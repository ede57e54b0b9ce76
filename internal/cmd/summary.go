package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MeKo-Tech/peatrisk/internal/risk"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the share of peatland area per risk level",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().Bool("json", false, "Print the summary as JSON")

	if err := viper.BindPFlag("summary.json", summaryCmd.Flags().Lookup("json")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	e, err := newEnv(s)
	if err != nil {
		return err
	}

	fs, err := e.loadRisk(cmd.Context())
	if err != nil {
		return err
	}
	sum, err := e.aggregator.Summarize(fs)
	if err != nil {
		return err
	}

	return writeSummary(cmd.OutOrStdout(), fs, sum, s.RiskField, viper.GetBool("summary.json"))
}

type summaryOutput struct {
	Dataset  string                 `json:"dataset"`
	Features int                    `json:"features"`
	Counts   map[types.Category]int `json:"counts"`
	Percent  risk.Summary           `json:"percent"`
	Slices   []risk.Slice           `json:"slices"`
}

func writeSummary(w io.Writer, fs *types.FeatureSet, sum risk.Summary, riskField string, asJSON bool) error {
	counts := fs.CategoryCounts(riskField)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryOutput{
			Dataset:  fs.Name,
			Features: fs.Len(),
			Counts:   counts,
			Percent:  sum,
			Slices:   sum.Slices(),
		})
	}

	fmt.Fprintf(w, "Dataset: %s (%d features)\n", fs.Name, fs.Len())
	for _, sl := range sum.Slices() {
		fmt.Fprintf(w, "  %-12s %6.1f%%\n", sl.Label, sl.Percent)
	}
	if n := counts[types.CategoryUnknown]; n > 0 {
		fmt.Fprintf(w, "  %d features with an unrecognised risk level", n)
		if t := sum.Total(); t > 0 {
			fmt.Fprintf(w, " (%.1f%% of the area)", 100-t)
		}
		fmt.Fprintln(w)
	}
	return nil
}
