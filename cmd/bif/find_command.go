package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bif/internal/bracket"
	"bif/internal/finder"
	"bif/internal/report"
)

func newFindCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput  bool
		formatFlag  string
		workers     int
		oscillating bool
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "find <root>",
		Short: "Scan a directory tree for exposure-bracketed image groups",
		Long: "Scan a directory tree for exposure-bracketed image groups.\n\n" +
			"Each group is printed as its pattern kind followed by the member files,\n" +
			"relative to <root>, in capture order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(formatFlag, jsonOutput)
			if err != nil {
				return err
			}

			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if cmd.Flags().Changed("workers") {
				if workers <= 0 {
					return fmt.Errorf("--workers must be positive (got %d)", workers)
				}
				cfg.Scan.Workers = workers
			}
			if oscillating {
				name := bracket.KindOscillating.String()
				if !slices.Contains(cfg.Classifier.Patterns, name) {
					cfg.Classifier.Patterns = append(slices.Clone(cfg.Classifier.Patterns), name)
				}
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			result, err := finder.Run(cmd.Context(), &cfg, args[0], logger)
			if err != nil {
				return err
			}
			if err := report.Render(cmd.OutOrStdout(), format, result.Groups); err != nil {
				return fmt.Errorf("render groups: %w", err)
			}
			if !quiet {
				errOut := cmd.ErrOrStderr()
				printSummary(errOut, result, shouldColorize(errOut))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output groups as JSON (same as --format json)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: text, json, yaml, or table")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent metadata readers (overrides scan.workers)")
	cmd.Flags().BoolVar(&oscillating, "oscillating", false, "Also detect the legacy oscillating pattern")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the summary on stderr")
	return cmd
}

func resolveFormat(name string, jsonOutput bool) (report.Format, error) {
	if strings.TrimSpace(name) == "" {
		if jsonOutput {
			return report.FormatJSON, nil
		}
		return report.FormatText, nil
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return "", err
	}
	if jsonOutput && format != report.FormatJSON {
		return "", fmt.Errorf("--json conflicts with --format %s", format)
	}
	return format, nil
}

func printSummary(w io.Writer, result finder.Result, colorize bool) {
	stats := result.Stats
	groupsKind := statusOK
	if len(result.Groups) == 0 {
		groupsKind = statusInfo
	}
	lines := []string{
		renderStatusLine("Groups", groupsKind, fmt.Sprintf("%s from %s in %s",
			plural(len(result.Groups), "group", "groups"),
			plural(stats.Qualifying, "bracketed image", "bracketed images"),
			result.Duration.Round(time.Millisecond),
		), colorize),
	}
	if stats.Malformed > 0 {
		lines = append(lines, renderStatusLine("Metadata", statusWarn,
			plural(stats.Malformed, "file with malformed EXIF skipped", "files with malformed EXIF skipped"), colorize))
	}
	if stats.Unreadable > 0 {
		lines = append(lines, renderStatusLine("Files", statusWarn,
			plural(stats.Unreadable, "unreadable file skipped", "unreadable files skipped"), colorize))
	}
	if result.CacheUsed {
		lines = append(lines, renderStatusLine("Cache", statusInfo,
			fmt.Sprintf("%d of %d reads answered from cache", stats.CacheHits, stats.Candidates), colorize))
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
