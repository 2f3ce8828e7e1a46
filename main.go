package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hbomb79/geoingest/internal"
	"github.com/hbomb79/geoingest/internal/extract"
	"github.com/hbomb79/geoingest/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.json"

var (
	log = logger.Get("Bootstrap")

	configPath          string
	verbose             bool
	baseFolder          string
	abortOnError        bool
	parallelism         int
	ffprobePath         string
	probeTimeoutSeconds int
)

var rootCmd = &cobra.Command{
	Use:   "geoingest",
	Short: "Load drone mission photo and video locations in to PostGIS",
	Long: `geoingest walks each 'Mission*' folder inside of the base folder, extracts the
GPS position of every photo (EXIF) and video (ffprobe location tag), and stores
the positions against the matching mission. Files already stored are skipped.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIngest,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database migrations and exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Print the location found in each file, without touching the database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(inspectCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file path (json, yaml or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.Flags().StringVarP(&baseFolder, "base-folder", "b", "", "directory containing the mission folders")
	rootCmd.Flags().BoolVar(&abortOnError, "abort-on-error", false, "stop the run at the first mission which fails")
	rootCmd.Flags().IntVarP(&parallelism, "parallel", "j", 0, "number of files to extract at once within a mission")

	inspectCmd.Flags().StringVar(&ffprobePath, "ffprobe", extract.DefaultFfprobeBinPath, "path to the ffprobe binary")
	inspectCmd.Flags().IntVar(&probeTimeoutSeconds, "probe-timeout", 30, "seconds before an ffprobe invocation is killed (0 waits forever)")
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env file: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Emit(logger.FATAL, "%s\n", err)
		cancel()
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if baseFolder != "" {
		config.BaseFolder = baseFolder
	}
	if abortOnError {
		config.AbortOnError = true
	}
	if parallelism > 0 {
		config.ExtractParallelism = parallelism
	}
	if err := config.Validate(); err != nil {
		return err
	}
	configureLogging(config)

	_, err = internal.New(*config).Run(cmd.Context())
	return err
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The base folder is irrelevant to migrating
	if config.BaseFolder == "" {
		config.BaseFolder = "."
	}
	if err := config.Validate(); err != nil {
		return err
	}
	configureLogging(config)

	return internal.New(*config).Migrate(cmd.Context())
}

func runInspect(cmd *cobra.Command, args []string) error {
	if verbose {
		logger.SetMinLoggingLevel(logger.VERBOSE)
	}

	timeout := time.Duration(probeTimeoutSeconds) * time.Second
	return internal.Inspect(cmd.Context(), extract.NewPhotoExtractor(), extract.NewVideoExtractor(ffprobePath, timeout), args, cmd.OutOrStdout())
}

// loadConfig loads the config file named by the --config flag. When the flag is
// left at its default and no such file exists, the configuration is instead read
// from the environment alone.
func loadConfig(cmd *cobra.Command) (*internal.Config, error) {
	path := configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Verbosef("No %s found, reading configuration from environment\n", path)
			path = ""
		}
	}

	return internal.LoadConfig(path)
}

func configureLogging(config *internal.Config) {
	level, _ := logger.ParseLevel(config.LogLevel)
	if verbose {
		level = logger.VERBOSE
	}

	logger.SetMinLoggingLevel(level)
}
