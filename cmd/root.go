// Package cmd wires the CLI surface: single-article production, batch runs
// over a CSV, and standalone keyword derivation.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"escriba/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "escriba",
	Short: "Escriba produces and publishes SEO blog articles from account briefs.",
	Long: `Escriba turns account briefs into published blog articles: it derives
keywords, outlines and writes each article section, inserts internal links to
the client's website, generates a 16:9 featured image, and publishes the
result to the configured WordPress site.

Batch mode processes a CSV of accounts and closes the matching tracker tasks
with the published URLs.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.escriba.yaml)")
}

// initConfig loads .env, the config file and the environment.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
}
