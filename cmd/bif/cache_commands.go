package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"bif/internal/metacache"
	"bif/internal/report"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the metadata cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

type cacheStatsView struct {
	Path      string `json:"path"`
	Entries   int    `json:"entries"`
	OK        int    `json:"ok"`
	Absent    int    `json:"absent"`
	Malformed int    `json:"malformed"`
	SizeBytes int64  `json:"size_bytes"`
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show metadata cache contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.Cache.Path); errors.Is(err, os.ErrNotExist) {
				if jsonOutput {
					return report.WriteJSON(out, cacheStatsView{Path: cfg.Cache.Path})
				}
				fmt.Fprintf(out, "No metadata cache at %s\n", cfg.Cache.Path)
				return nil
			}

			cache, err := metacache.Open(cmd.Context(), cfg.Cache.Path)
			if err != nil {
				return fmt.Errorf("open metadata cache: %w", err)
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			view := cacheStatsView(stats)
			if jsonOutput {
				return report.WriteJSON(out, view)
			}

			fmt.Fprintf(out, "Cache: %s\n", view.Path)
			rows := [][]string{
				{"ok", strconv.Itoa(view.OK)},
				{"absent", strconv.Itoa(view.Absent)},
				{"malformed", strconv.Itoa(view.Malformed)},
				{"total", strconv.Itoa(view.Entries)},
			}
			fmt.Fprintln(out, renderTable([]string{"Status", "Entries"}, rows, 2))
			fmt.Fprintf(out, "Size: %s\n", formatBytes(view.SizeBytes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output stats as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached metadata entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.Cache.Path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "No metadata cache at %s\n", cfg.Cache.Path)
				return nil
			}

			cache, err := metacache.Open(cmd.Context(), cfg.Cache.Path)
			if err != nil {
				return fmt.Errorf("open metadata cache: %w", err)
			}
			defer cache.Close()

			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %s\n", plural(int(removed), "cached entry", "cached entries"))
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
