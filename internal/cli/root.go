package cli

import (
	"github.com/spf13/cobra"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/indexer"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/media"
	"photo-gallery/internal/memory"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/workers"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photo-gallery",
		Short: "Photo gallery grouped by capture date",
		Long: `photo-gallery indexes the .jpg and .png files of a directory, writes a
JPEG thumbnail for each and serves them as a web page grouped by the
EXIF capture date, newest day first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// flags override the environment and the config file
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ./config.yaml if present)")
	flags.StringP("source", "s", "", "directory of source images (SOURCE_DIR)")
	flags.StringP("output", "o", "", "thumbnail output directory, purged on every build (OUTPUT_DIR)")
	flags.StringP("port", "p", "", "HTTP port (PORT)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig resolves the configuration for cmd and applies its logging
// settings.
func loadConfig(cmd *cobra.Command) (*startup.Config, error) {
	config, err := startup.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logging.Configure(config.LogLevel, config.LogFormat); err != nil {
		return nil, err
	}
	return config, nil
}

// configureFilesystem labels filesystem metrics by the configured
// directories.
func configureFilesystem(config *startup.Config) {
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"source": config.SourceDir,
		"output": config.OutputDir,
		"static": config.StaticDir,
	}))
}

// startMemoryMonitor applies MEMORY_LIMIT and starts the monitor that gates
// thumbnail workers. Without a limit the monitor never pauses.
func startMemoryMonitor(config *startup.Config) *memory.Monitor {
	limit := memory.ApplyLimit(config.MemoryLimit, config.MemoryRatio)

	monitorConfig := memory.DefaultConfig()
	monitorConfig.LimitBytes = limit.GoMemLimit
	monitor := memory.NewMonitor(monitorConfig)
	monitor.Start()
	return monitor
}

func newIndexer(config *startup.Config, gate indexer.Gate) *indexer.Indexer {
	return indexer.New(indexer.Options{
		OutputDir:    config.OutputDir,
		URLPrefix:    config.ThumbnailURLPrefix,
		Workers:      workers.ForBuild(config.BuildWorkers),
		DateFallback: config.CaptureDateFallback,
		Thumbnailer:  media.NewThumbnailer(config.ThumbnailSize, config.ThumbnailQuality),
		Gate:         gate,
	})
}
