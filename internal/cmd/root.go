package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "peatrisk",
	Short: "Oil & gas risk maps for tropical peatlands",
	Long: `Peatrisk summarises and maps tropical peatland polygons classified by their
proximity to oil & gas infrastructure.

It loads a risk-classified peatland dataset, reports the share of area per
risk level, and composes a layered map (risk layer plus optional oil & gas
overlays) as a GeoJSON map document, a PNG preview or over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "./earth_insight", "Directory holding the risk dataset and the og/ overlays")
	rootCmd.PersistentFlags().String("risk-file", "", "Risk dataset (defaults to <data-dir>/risk_peatlands.gpkg)")
	rootCmd.PersistentFlags().String("area-field", "area", "Attribute holding the feature area")
	rootCmd.PersistentFlags().String("risk-field", "risk", "Attribute holding the risk level (low, medium, high)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"data-dir", "data-dir"},
		{"risk-file", "risk-file"},
		{"area-field", "area-field"},
		{"risk-field", "risk-field"},
		{"verbose", "verbose"},
		{"log-format", "log-format"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, rootCmd.PersistentFlags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PEATRISK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
