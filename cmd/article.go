package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"escriba/internal/brief"
	"escriba/internal/config"
	"escriba/internal/core"
)

var articleKeywords string

var articleCmd = &cobra.Command{
	Use:   "article <account-uuid>",
	Short: "Produce and publish one article for an account",
	Long: `Fetches the account brief, generates one complete article (outline,
sections, internal links, featured image) and publishes it. Keywords come
from the --keywords flag, or are derived from the brief when omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountUUID := args[0]
		cfg := config.Get()

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		keywords := articleKeywords
		if keywords == "" {
			keywords, err = deriveKeywords(cmd, p, accountUUID)
			if err != nil {
				return err
			}
		}

		row := core.CsvRow{AccountUUID: accountUUID, Keywords: keywords, TaskCount: 1}
		if err := p.orchestrator.Run(cmd.Context(), []core.CsvRow{row}); err != nil {
			return err
		}

		urls := p.orchestrator.Progress().PublishedURLs
		if len(urls) > 0 {
			fmt.Printf("Published: %s\n", urls[0])
		}
		return nil
	},
}

// deriveKeywords asks the generation backend for keywords when the operator
// did not supply any.
func deriveKeywords(cmd *cobra.Command, p *pipeline, accountUUID string) (string, error) {
	raw, err := p.briefs.Fetch(cmd.Context(), accountUUID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch brief for keyword derivation: %w", err)
	}
	kws, err := p.generator.Keywords(cmd.Context(), brief.ExtractContext(raw))
	if err != nil {
		return "", err
	}
	p.log.Infof("Palabras clave derivadas: %s", strings.Join(kws, ", "))
	return strings.Join(kws, ", "), nil
}

func init() {
	rootCmd.AddCommand(articleCmd)
	articleCmd.Flags().StringVarP(&articleKeywords, "keywords", "k", "", "comma-separated keywords (derived from the brief when omitted)")
}
