package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"escriba/internal/brief"
	"escriba/internal/config"
	"escriba/internal/gen"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <account-uuid>",
	Short: "Derive the 5 best SEO keywords from an account brief",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if err := cfg.ValidateGeneration(); err != nil {
			return err
		}

		generator, err := gen.NewClient(cfg.AI.Gemini.Model)
		if err != nil {
			return err
		}

		raw, err := brief.NewClient(cfg.Brief).Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		kws, err := generator.Keywords(cmd.Context(), brief.ExtractContext(raw))
		if err != nil {
			return err
		}

		for _, kw := range kws {
			fmt.Println(kw)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keywordsCmd)
}
