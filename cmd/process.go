package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ecordell/optgen/helpers"
	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/services"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/exiftool"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// NewProcessCommand creates the cobra command that runs the full eight-stage
// pipeline over a takeout export.
func NewProcessCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "process",
		Short:        "Process a takeout export into the organized output tree",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			log := logger.SetupLogger(cfg)
			defer log.Sync()

			undo := zap.ReplaceGlobals(log)
			defer undo()

			zap.S().Infow("using configuration", "config", helpers.Flatten(cfg.DebugMap()))

			if err := cfg.Validate(); err != nil {
				return err
			}
			if abs, err := filepath.Abs(cfg.InputDir); err == nil {
				cfg.InputDir = abs
			}
			if abs, err := filepath.Abs(cfg.OutputDir); err == nil {
				cfg.OutputDir = abs
			}

			et, err := exiftool.NewAdapter()
			if err != nil {
				zap.S().Warnw("exiftool unavailable, native paths only", "error", err)
				et = nil
			} else {
				defer et.Close()
				zap.S().Infow("exiftool available", "version", et.Version())
			}

			pctx := pipeline.NewContext(ctx, cfg, et)

			p := pipeline.New(
				services.NewFixExtensionsStep(),
				services.NewDiscoveryStep(),
				services.NewDedupStep(),
				services.NewExtractDatesStep(),
				services.NewConsolidateAlbumsStep(),
				services.NewMoveFilesStep(),
				services.NewWriteExifStep(),
				services.NewUpdateTimestampsStep(),
			)

			result := p.Run(pctx)
			printSummary(result)

			if !result.Success {
				return fmt.Errorf("processing aborted: %d step(s) failed", result.StepsFailed)
			}
			return nil
		},
	}

	registerFlags(cmd, cfg)
	return cmd
}

func printSummary(result *pipeline.ProcessingResult) {
	zap.S().Infow("run summary",
		"success", result.Success,
		"duration", result.Duration,
		"steps_succeeded", result.StepsSucceeded,
		"steps_failed", result.StepsFailed,
		"steps_skipped", result.StepsSkipped,
		"duplicates_removed", result.DuplicatesRemoved,
		"extras_skipped", result.ExtrasSkipped,
		"extensions_fixed", result.ExtensionsFixed,
		"files_moved", result.FilesMoved,
		"files_copied", result.FilesCopied,
		"shortcuts_created", result.ShortcutsCreated,
		"datetimes_written", result.DateTimesWritten,
		"coordinates_written", result.CoordinatesWritten,
		"creation_times_updated", result.CreationTimesUpdated,
		"extraction_histogram", result.ExtractionHistogram,
	)
}

func registerFlags(cmd *cobra.Command, config *config.Config) {
	nfs := cobrautil.NewNamedFlagSets(cmd)

	ioFlagSet := nfs.FlagSet(color.New(color.FgCyan, color.Bold).Sprint("input/output"))
	registerIOFlags(ioFlagSet, config)

	albumFlagSet := nfs.FlagSet(color.New(color.FgCyan, color.Bold).Sprint("albums"))
	registerAlbumFlags(albumFlagSet, config)

	dateFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("dates"))
	registerDateFlags(dateFlagSet, config)

	exifFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("exif"))
	registerExifFlags(exifFlagSet, config)

	tuningFlagSet := nfs.FlagSet(color.New(color.FgMagenta, color.Bold).Sprint("tuning"))
	registerTuningFlags(tuningFlagSet, config)

	nfs.AddFlagSets(cmd)
}

func registerIOFlags(flagSet *pflag.FlagSet, config *config.Config) {
	flagSet.StringVar(&config.InputDir, "input", config.InputDir, "path to the extracted takeout directory")
	flagSet.StringVar(&config.OutputDir, "output", config.OutputDir, "path to the output directory")
	flagSet.BoolVar(&config.DryRun, "dry-run", config.DryRun, "plan the move stage without touching the filesystem")
	flagSet.BoolVar(&config.Verbose, "verbose", config.Verbose, "per-file logging instead of progress bars")
}

func registerAlbumFlags(flagSet *pflag.FlagSet, config *config.Config) {
	flagSet.StringVar(&config.AlbumBehavior, "album-behavior", config.AlbumBehavior, `how albums are expressed: "shortcut", "duplicate-copy", "reverse-shortcut", "json" or "nothing"`)
}

func registerDateFlags(flagSet *pflag.FlagSet, config *config.Config) {
	flagSet.StringVar(&config.DateDivision, "date-division", config.DateDivision, `date subfolders inside ALL_PHOTOS: "none", "year", "year-month" or "year-month-day"`)
	flagSet.BoolVar(&config.UpdateCreationTime, "update-creation-time", config.UpdateCreationTime, "set filesystem creation times to the resolved date (Windows only)")
}

func registerExifFlags(flagSet *pflag.FlagSet, config *config.Config) {
	flagSet.BoolVar(&config.WriteExif, "write-exif", config.WriteExif, "embed resolved dates and GPS coordinates into the output files")
	flagSet.BoolVar(&config.EnableExiftoolBatch, "exiftool-batch", config.EnableExiftoolBatch, "batch external exiftool writes")
	flagSet.BoolVar(&config.ForceProcessUnsupportedFormats, "force-unsupported", config.ForceProcessUnsupportedFormats, "attempt exif writes on formats known to be unsupported")
}

func registerTuningFlags(flagSet *pflag.FlagSet, config *config.Config) {
	flagSet.StringVar(&config.ExtensionFixing, "fix-extensions", config.ExtensionFixing, `extension fixing mode: "none", "standard", "conservative" or "solo"`)
	flagSet.BoolVar(&config.SkipExtras, "skip-extras", config.SkipExtras, "drop edited-version copies (e.g. *-edited.jpg)")
	flagSet.BoolVar(&config.TransformPixelMotionPhotos, "transform-motion-photos", config.TransformPixelMotionPhotos, "rename Pixel .MP/.MV motion photos to .mp4")
	flagSet.BoolVar(&config.EnforceMaxFileSize, "enforce-max-file-size", config.EnforceMaxFileSize, "skip hashing and exif reads for files over the size cap")
	flagSet.Int64Var(&config.MaxFileSize, "max-file-size", config.MaxFileSize, "size cap in bytes used with --enforce-max-file-size")
	flagSet.BoolVar(&config.LimitFileSize, "limit-file-size", config.LimitFileSize, "low-memory mode: cap hashed file size at 64 MiB")
	flagSet.BoolVar(&config.FastHash, "fast-hash", config.FastHash, "hash only the first 2 MiB of each file (collision risk)")
}
