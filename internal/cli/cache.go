package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/cache"
)

// cacheCommand groups the local cache subcommands.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local layout and artifact cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached layouts and artifacts",
			Args:  cobra.NoArgs,
			RunE:  withLocalCache(runCacheClear),
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show how many entries the cache holds",
			Args:  cobra.NoArgs,
			RunE:  withLocalCache(runCacheStats),
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dir, err := cacheDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			},
		},
	)
	return cmd
}

// withLocalCache opens the CLI file cache for fn. A cache directory that
// does not exist yet is reported as empty.
func withLocalCache(fn func(*cobra.Command, *cache.FileCache) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		dir, err := cacheDir()
		if err != nil {
			return fmt.Errorf("locate cache: %w", err)
		}
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			printInfo("Cache is empty")
			return nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return err
		}
		return fn(cmd, fc)
	}
}

func runCacheClear(_ *cobra.Command, fc *cache.FileCache) error {
	n, err := fc.Clear()
	if err != nil {
		return err
	}
	printSuccess("Cleared %d cached entries", n)
	printDetail("Directory: %s", fc.Dir())
	return nil
}

func runCacheStats(cmd *cobra.Command, fc *cache.FileCache) error {
	n, size, err := fc.Usage()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %.1f KiB in %s\n", n, float64(size)/1024, fc.Dir())
	return nil
}
