package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparkify/sparkify-dwh/internal/source"
)

var (
	previewDataset string
	previewLimit   int
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print sample records from the S3 source data",
	Long: `Fetch a handful of JSON-line records from the configured S3 source
locations and print them. Useful for confirming the bucket locations,
credentials, and record shape before running a full bulk load.

Example:
  sparkify-dwh preview --dataset song --limit 3`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewDataset, "dataset", "log",
		"dataset to sample: log or song")
	previewCmd.Flags().IntVar(&previewLimit, "limit", 5,
		"number of records to print")
}

func runPreview(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidatePreview(); err != nil {
		return err
	}

	var uri string
	switch previewDataset {
	case "log":
		uri = cfg.S3.LogData
	case "song":
		uri = cfg.S3.SongData
	default:
		return fmt.Errorf("dataset must be 'log' or 'song', got %q", previewDataset)
	}
	if uri == "" {
		return fmt.Errorf("no s3 location configured for dataset %q", previewDataset)
	}

	sampler, err := source.NewSampler(cfg.Region)
	if err != nil {
		return err
	}

	records, err := sampler.Sample(uri, previewLimit)
	if err != nil {
		return err
	}

	for _, rec := range records {
		line, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render record: %w", err)
		}
		cmd.Println(string(line))
	}
	return nil
}
