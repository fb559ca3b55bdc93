package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	githubsink "github.com/open-inbox/openinbox-cli/internal/adapters/driven/deploy/github"
	"github.com/open-inbox/openinbox-cli/internal/adapters/driven/source/documentcloud"
	"github.com/open-inbox/openinbox-cli/internal/adapters/driven/storage/sqlite"
	"github.com/open-inbox/openinbox-cli/internal/checkpoint"
	"github.com/open-inbox/openinbox-cli/internal/chunks"
	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driving"
	"github.com/open-inbox/openinbox-cli/internal/core/services"
)

var (
	runName       string
	runDocuments  []string
	runQuery      string
	runDateFormat string
	runDeploy     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest documents into a new collection",
	Long: `Fetches the selected documents, extracts email metadata, and writes
the collection artifacts (metadata store, content chunks, manifest) to
the output directory. With --deploy the artifacts are also published to
the configured hosting repository.

An interrupted run saves its progress; re-running with the same
collection name resumes where it stopped.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runName, "name", "n", "", "collection name (required)")
	runCmd.Flags().StringSliceVarP(&runDocuments, "documents", "d", nil, "document ids to ingest")
	runCmd.Flags().StringVarP(&runQuery, "query", "q", "", "source search query, used when no ids are given")
	runCmd.Flags().StringVar(&runDateFormat, "date-format", "", "date layout hint, or auto")
	runCmd.Flags().BoolVar(&runDeploy, "deploy", false, "publish the collection after building it")
	_ = runCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := documentcloud.NewClient(cfg.Source.BaseURL, cfg.Source.Token, cfg.Source.Timeout)

	writers := services.ArtifactWriters{
		Checkpoint: func(dir string) driven.Checkpoint { return checkpoint.NewManager(dir) },
		Store:      func(dir string) driven.MetadataStoreWriter { return sqlite.NewStoreWriter(dir) },
		Chunks:     func(dir string) driven.ChunkWriter { return chunks.NewWriter(dir) },
		Manifest:   func(dir string) driven.ManifestWriter { return chunks.NewManifestWriter(dir) },
	}

	opts := []services.PipelineOption{
		services.WithProgress(func(percent int, message string) {
			cmd.Printf("[%3d%%] %s\n", percent, message)
		}),
	}

	if runDeploy {
		if cfg.Deploy.Owner == "" || cfg.Deploy.Repo == "" || cfg.Deploy.Token == "" {
			return errors.New("deploy requires owner, repo and token in the [deploy] config section")
		}
		sink := githubsink.NewSink(ctx, cfg.Deploy)
		opts = append(opts, services.WithDeployer(services.NewDeployer(sink)))
	}

	pipeline := services.NewPipeline(cfg, source, writers, opts...)

	result, err := pipeline.Run(ctx, driving.RunOptions{
		CollectionName: runName,
		DocumentIDs:    runDocuments,
		Query:          runQuery,
		DateFormat:     runDateFormat,
	})
	if errors.Is(err, domain.ErrInterrupted) {
		cmd.Println()
		cmd.Println("Run interrupted; progress saved.")
		cmd.Printf("Re-run with --name %q to resume.\n", runName)
		return err
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	cmd.Println()
	cmd.Printf("Collection %s ready: %d records in %d chunks.\n",
		result.Filename, result.RecordCount, result.ChunkCount)
	cmd.Printf("Store:    %s\n", result.StorePath)
	cmd.Printf("Manifest: %s\n", result.ManifestPath)
	if result.SkippedChunks > 0 {
		cmd.Printf("Note: %d oversized chunk(s) were kept local only.\n", result.SkippedChunks)
	}
	if result.DeployedURL != "" {
		cmd.Printf("Browse:   %s\n", result.DeployedURL)
	}
	return nil
}
