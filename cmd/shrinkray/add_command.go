package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shrinkray/internal/config"
	"shrinkray/internal/media"
	"shrinkray/internal/queue"
	"shrinkray/internal/resolve"
)

type addFlags struct {
	audioBitrate      string
	sampleRate        string
	channels          string
	resolution        string
	quality           float64
	outputFormat      string
	trimStart         float64
	trimEnd           float64
	fadeIn            float64
	fadeOut           float64
	keepMetadata      bool
	preserveAnimation bool
	recursive         bool
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	flags := &addFlags{}

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Add media files to the compression queue",
		Long: "Add queues audio, video, and image files for compression. Directories\n" +
			"are scanned for supported media; unsupported files are skipped. Tier and\n" +
			"trim flags override the configured defaults for the queued jobs only.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				settings, err := buildSettings(cfg, cmd, flags)
				if err != nil {
					return err
				}
				settingsJSON, err := settings.Marshal()
				if err != nil {
					return err
				}

				paths, err := collectMediaPaths(args, flags.recursive)
				if err != nil {
					return err
				}
				if len(paths) == 0 {
					return fmt.Errorf("no supported media files found")
				}

				for _, path := range paths {
					kind, _ := media.KindForPath(path)
					job, err := store.NewJob(cmd.Context(), path, string(kind), settingsJSON)
					if err != nil {
						return fmt.Errorf("enqueue %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as job #%d (%s)\n", filepath.Base(path), job.ID, kind)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.audioBitrate, "audio-bitrate", "", "Audio bitrate tier (original, 320k, 256k, 192k, 128k, 96k, 64k)")
	cmd.Flags().StringVar(&flags.sampleRate, "sample-rate", "", "Sample rate tier (original, 48000, 44100, 22050)")
	cmd.Flags().StringVar(&flags.channels, "channels", "", "Channel tier (original, stereo, mono)")
	cmd.Flags().StringVar(&flags.resolution, "resolution", "", "Resolution tier (original, 2160p, 1440p, 1080p, 720p, 480p)")
	cmd.Flags().Float64Var(&flags.quality, "quality", 0, "Quality factor between 0.1 and 1.0")
	cmd.Flags().StringVar(&flags.outputFormat, "format", "", "Output container (for example mp3, mp4, webp)")
	cmd.Flags().Float64Var(&flags.trimStart, "trim-start", 0, "Trim start offset in seconds")
	cmd.Flags().Float64Var(&flags.trimEnd, "trim-end", 0, "Trim end offset in seconds")
	cmd.Flags().Float64Var(&flags.fadeIn, "fade-in", 0, "Fade-in duration in seconds")
	cmd.Flags().Float64Var(&flags.fadeOut, "fade-out", 0, "Fade-out duration in seconds")
	cmd.Flags().BoolVar(&flags.keepMetadata, "keep-metadata", false, "Preserve source metadata in the output")
	cmd.Flags().BoolVar(&flags.preserveAnimation, "preserve-animation", false, "Keep all frames of animated images")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "Descend into subdirectories")

	return cmd
}

func buildSettings(cfg *config.Config, cmd *cobra.Command, flags *addFlags) (resolve.TargetSettings, error) {
	settings := cfg.DefaultSettings()

	if flags.audioBitrate != "" {
		tier, ok := resolve.ParseBitrateTier(flags.audioBitrate)
		if !ok {
			return settings, fmt.Errorf("invalid audio bitrate tier %q", flags.audioBitrate)
		}
		settings.AudioBitrate = tier
	}
	if flags.sampleRate != "" {
		tier, ok := resolve.ParseSampleRateTier(flags.sampleRate)
		if !ok {
			return settings, fmt.Errorf("invalid sample rate tier %q", flags.sampleRate)
		}
		settings.SampleRate = tier
	}
	if flags.channels != "" {
		tier, ok := resolve.ParseChannelTier(flags.channels)
		if !ok {
			return settings, fmt.Errorf("invalid channel tier %q", flags.channels)
		}
		settings.Channels = tier
	}
	if flags.resolution != "" {
		tier, ok := resolve.ParseResolutionTier(flags.resolution)
		if !ok {
			return settings, fmt.Errorf("invalid resolution tier %q", flags.resolution)
		}
		settings.Resolution = tier
	}
	if cmd.Flags().Changed("quality") {
		if flags.quality < 0.1 || flags.quality > 1.0 {
			return settings, fmt.Errorf("quality must be between 0.1 and 1.0, got %v", flags.quality)
		}
		settings.Quality = flags.quality
	}
	if flags.outputFormat != "" {
		settings.OutputFormat = flags.outputFormat
	}
	if flags.trimStart < 0 || flags.trimEnd < 0 {
		return settings, fmt.Errorf("trim offsets must be non-negative")
	}
	if flags.trimEnd > 0 && flags.trimEnd <= flags.trimStart {
		return settings, fmt.Errorf("trim end %v must be after trim start %v", flags.trimEnd, flags.trimStart)
	}
	settings.TrimStart = flags.trimStart
	settings.TrimEnd = flags.trimEnd
	if flags.fadeIn < 0 || flags.fadeOut < 0 {
		return settings, fmt.Errorf("fade durations must be non-negative")
	}
	settings.FadeIn = flags.fadeIn
	settings.FadeOut = flags.fadeOut
	if cmd.Flags().Changed("keep-metadata") {
		settings.PreserveMetadata = flags.keepMetadata
	}
	settings.PreserveAnimation = flags.preserveAnimation

	return settings, nil
}

// collectMediaPaths expands the argument list into absolute paths of
// supported media files. Directory arguments are scanned one level deep
// unless recursive is set.
func collectMediaPaths(args []string, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		absPath, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve path: %w", err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", arg, err)
		}
		if !info.IsDir() {
			if _, ok := media.KindForPath(absPath); !ok {
				return nil, fmt.Errorf("unsupported file type: %s", absPath)
			}
			paths = append(paths, absPath)
			continue
		}
		found, err := scanDirectory(absPath, recursive)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func scanDirectory(dir string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := media.KindForPath(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return paths, nil
}
