package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"photo-gallery/internal/indexer"
	"photo-gallery/internal/startup"
)

// newIndexCmd creates the command that runs one build and prints the result
func newIndexCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the gallery once and print the date groups",
		Long: `Purge the output directory, write a thumbnail for every source image
and print the resulting date groups, newest first. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}

			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := startup.PrepareDirectories(config); err != nil {
				return err
			}
			configureFilesystem(config)

			monitor := startMemoryMonitor(config)
			defer monitor.Stop()

			index, err := newIndexer(config, monitor).Build(cmd.Context(), config.SourceDir)
			if err != nil {
				return err
			}
			return writeGroups(cmd.OutOrStdout(), format, index.Groups())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func writeGroups(w io.Writer, format string, groups []indexer.DateGroup) error {
	if groups == nil {
		groups = []indexer.DateGroup{}
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(groups); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}
}
