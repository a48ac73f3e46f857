package cmd

import (
	"fmt"

	"escriba/internal/assemble"
	"escriba/internal/batch"
	"escriba/internal/brief"
	"escriba/internal/config"
	"escriba/internal/gen"
	"escriba/internal/publish"
	"escriba/internal/runlog"
	"escriba/internal/tracker"
	"escriba/internal/visual"
)

// pipeline bundles the wired collaborators shared by the article and batch
// commands.
type pipeline struct {
	briefs       *brief.Client
	generator    *gen.Client
	orchestrator *batch.Orchestrator
	log          *runlog.Log
}

// buildPipeline validates configuration and wires every collaborator. The
// trackers stay nil unless their base URLs are configured.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	if err := cfg.ValidateGeneration(); err != nil {
		return nil, err
	}
	if err := cfg.ValidatePublish(); err != nil {
		return nil, err
	}

	generator, err := gen.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	log := runlog.New()
	briefs := brief.NewClient(cfg.Brief)
	images := visual.NewGenerator(visual.NewImageClient(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model, cfg.AI.OpenAI.BaseURL))
	assembler := assemble.New(generator, images, log)
	publisher := publish.NewClient(cfg.CMS)

	var primary batch.PrimaryTracker
	if cfg.Tracker.Primary.BaseURL != "" {
		primary = tracker.NewPrimaryClient(cfg.Tracker.Primary)
	}
	var secondary batch.SecondaryTracker
	if cfg.Tracker.Secondary.BaseURL != "" {
		secondary = tracker.NewSecondaryClient(cfg.Tracker.Secondary)
	}

	orchestrator := batch.New(briefs, generator, assembler, publisher, primary, secondary, cfg.Batch, log)
	return &pipeline{briefs: briefs, generator: generator, orchestrator: orchestrator, log: log}, nil
}
