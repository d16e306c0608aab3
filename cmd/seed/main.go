// Command seed publishes a starter skill ontology version and its
// canonical skill catalog against a target database — the minimum data
// a fresh deployment needs before ingestion or matching can run.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// starterSkills is a small, representative slice of the bench-sales
// skill catalog — enough for pkg/ontology's matcher and the matching
// engine's scoring to have real data to run against out of the box.
// Operators are expected to publish their own ontology version for
// production use; this is a development/demo seed, not the catalog.
var starterSkills = []struct {
	name     string
	category string
}{
	{"TypeScript", "language"},
	{"JavaScript", "language"},
	{"React", "framework"},
	{"Node.js", "runtime"},
	{"Python", "language"},
	{"Java", "language"},
	{"Go", "language"},
	{"AWS", "platform"},
	{"Salesforce", "platform"},
	{"SQL", "data"},
	{"Kubernetes", "infrastructure"},
	{"Terraform", "infrastructure"},
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "seed",
		Short: "Publish a starter skill ontology and catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "deploy/config/config.yaml", "path to the YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := database.NewStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Pool.Close()

	version := &models.OntologyVersion{
		ID:          uuid.NewString(),
		Version:     fmt.Sprintf("seed-%s", time.Now().UTC().Format("20060102")),
		Source:      "cmd/seed",
		PublishedAt: time.Now().UTC(),
	}
	if err := store.Ontology.PublishVersion(ctx, version, true); err != nil {
		return fmt.Errorf("publishing ontology version: %w", err)
	}

	for _, s := range starterSkills {
		category := s.category
		node := &models.OntologyNode{
			ID:            uuid.NewString(),
			VersionID:     version.ID,
			CanonicalName: s.name,
			Category:      &category,
		}
		if err := store.Ontology.AddNode(ctx, node); err != nil {
			return fmt.Errorf("adding ontology node %q: %w", s.name, err)
		}

		if _, err := store.Skills.Upsert(ctx, &models.Skill{
			Name:           s.name,
			Category:       &category,
			OntologyNodeID: &node.ID,
		}); err != nil {
			return fmt.Errorf("upserting skill %q: %w", s.name, err)
		}
	}

	fmt.Printf("seeded ontology version %s with %d skills\n", version.Version, len(starterSkills))
	return nil
}
