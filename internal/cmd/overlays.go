package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/MeKo-Tech/peatrisk/internal/datasource"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var overlaysCmd = &cobra.Command{
	Use:   "overlays",
	Short: "List the oil & gas overlays that can be added to the map",
	RunE:  runOverlays,
}

func init() {
	rootCmd.AddCommand(overlaysCmd)

	overlaysCmd.Flags().Bool("check", false, "Report whether each overlay file exists")

	if err := viper.BindPFlag("overlays_cmd.check", overlaysCmd.Flags().Lookup("check")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runOverlays(cmd *cobra.Command, args []string) error {
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

	return writeOverlays(cmd.OutOrStdout(), e.catalog, viper.GetBool("overlays_cmd.check"))
}

func writeOverlays(w io.Writer, catalog *datasource.Catalog, check bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, entry := range catalog.Entries() {
		if !check {
			fmt.Fprintf(tw, "%s\t%s\n", entry.Name, entry.Path)
			continue
		}
		status := "ok"
		if _, err := os.Stat(entry.Path); err != nil {
			status = "missing"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Name, entry.Path, status)
	}
	return tw.Flush()
}
