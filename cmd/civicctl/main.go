// civicctl is the admin companion to the civic assist service: it
// seeds a report database from YAML fixtures and runs search-cascade
// queries offline, without the HTTP server or an LLM.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"civic-assist/internal/embeddings"
	"civic-assist/internal/models"
	"civic-assist/internal/relevance"
	"civic-assist/internal/scope"
	"civic-assist/internal/search"
	"civic-assist/internal/storage"
	"civic-assist/internal/vocab"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	root := &cobra.Command{
		Use:           "civicctl",
		Short:         "Admin tooling for the civic assist service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSeedCmd(), newQueryCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// fixtureOwner mirrors the legacy nested owner object in fixtures.
type fixtureOwner struct {
	UID string `yaml:"uid"`
	ID  string `yaml:"id"`
}

type fixtureReport struct {
	Title       string        `yaml:"title"`
	Category    string        `yaml:"category"`
	Status      string        `yaml:"status"`
	Priority    string        `yaml:"priority"`
	Location    string        `yaml:"location"`
	Coordinates string        `yaml:"coordinates"`
	Description string        `yaml:"description"`
	Assignee    string        `yaml:"assignee"`
	CreatedBy   string        `yaml:"created_by"`
	UserID      string        `yaml:"user_id"`
	SubmittedBy string        `yaml:"submitted_by"`
	User        *fixtureOwner `yaml:"user"`
	CreatedAt   string        `yaml:"created_at"` // RFC3339, defaults to now
}

type fixtureFile struct {
	Reports []fixtureReport `yaml:"reports"`
}

func newSeedCmd() *cobra.Command {
	var dbPath, fixturePath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load report fixtures into a report database",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(fixturePath)
			if err != nil {
				return fmt.Errorf("failed to read fixtures: %w", err)
			}

			var fixtures fixtureFile
			if err := yaml.Unmarshal(data, &fixtures); err != nil {
				return fmt.Errorf("failed to parse fixtures: %w", err)
			}

			store, err := storage.NewReportStore(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			embedder := embeddings.NewHashEmbedder()

			for i, f := range fixtures.Reports {
				report, err := fixtureToReport(f)
				if err != nil {
					return fmt.Errorf("fixture %d (%s): %w", i, f.Title, err)
				}

				embedding, err := embedder.Embed(cmd.Context(), report.Title+" "+report.Description+" "+report.Location)
				if err == nil {
					report.Embedding = embedding
				}

				if err := store.Add(report); err != nil {
					return fmt.Errorf("fixture %d (%s): %w", i, f.Title, err)
				}
			}

			fmt.Printf("Seeded %d report(s) into %s\n", len(fixtures.Reports), dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "reports.db", "report database path")
	cmd.Flags().StringVar(&fixturePath, "file", "fixtures.yaml", "YAML fixture file")
	return cmd
}

func fixtureToReport(f fixtureReport) (*models.Report, error) {
	report := &models.Report{
		Title:       f.Title,
		Category:    f.Category,
		Status:      f.Status,
		Priority:    f.Priority,
		Location:    f.Location,
		Coordinates: f.Coordinates,
		Description: f.Description,
		Assignee:    f.Assignee,
		CreatedBy:   f.CreatedBy,
		UserID:      f.UserID,
		SubmittedBy: f.SubmittedBy,
	}

	if report.Status == "" {
		report.Status = models.StatusNew
	}
	if report.Priority == "" {
		report.Priority = models.PriorityMedium
	}
	if f.User != nil {
		report.User = &models.OwnerRef{UID: f.User.UID, ID: f.User.ID}
	}
	if f.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", f.CreatedAt, err)
		}
		report.CreatedAt = ts
	}

	return report, nil
}

func newQueryCmd() *cobra.Command {
	var dbPath, userID string
	var maxResults int

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Run the search cascade offline and print ranked candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]

			vocabulary := vocab.Default()
			embedder := embeddings.NewHashEmbedder()

			knowledge, err := storage.NewKnowledgeStore(context.Background(), embedder, storage.DefaultKnowledge())
			if err != nil {
				return err
			}

			store, err := storage.NewReportStore(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scorer := relevance.NewScorer(vocabulary, time.Now)
			filter := scope.NewFilter(store, vocabulary)
			controller := search.NewController(knowledge, store, filter, embedder, scorer, vocabulary, search.DefaultOptions())

			candidates := controller.Search(cmd.Context(), question, userID, maxResults)
			if len(candidates) == 0 {
				fmt.Println("No candidates found.")
				return nil
			}

			for i, c := range candidates {
				fmt.Printf("%d. [%.2f] (%s) %s\n", i+1, c.Score, c.Kind, c.Title)
				if c.Category != "" {
					fmt.Printf("   category: %s", c.Category)
					if c.Status != "" {
						fmt.Printf("  status: %s", c.Status)
					}
					fmt.Println()
				}
				if c.Location != "" {
					fmt.Printf("   location: %s\n", c.Location)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "reports.db", "report database path")
	cmd.Flags().StringVar(&userID, "user", "", "restrict the search to this user's reports")
	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum candidates (0 uses the default)")
	return cmd
}
