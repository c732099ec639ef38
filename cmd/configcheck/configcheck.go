// Package configcheck implements the `configcheck` subcommand: loads
// and validates the configuration exactly as `serve` would at startup,
// then reports the resolved settings, so a bad config file is caught
// before the process is actually started under a supervisor.
package configcheck

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f2lnk/f2lnk-go/internal/conf"
)

// Command builds the `configcheck` subcommand.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "configcheck",
		Short: "Validate the configuration file",
		Long:  "Loads config.yaml (or the on-disk override) and its environment overrides, applies validation and defaulting, and reports the result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := conf.Load()
			if err != nil {
				return fmt.Errorf("configcheck: %w", err)
			}
			report(settings)
			return nil
		},
	}
}

func report(s *conf.Settings) {
	fmt.Println("Configuration OK.")
	fmt.Printf("  tasks root:        %s\n", s.Storage.TasksRoot)
	fmt.Printf("  download root:     %s\n", s.Storage.DownloadRoot)
	fmt.Printf("  default tier:      %s\n", s.Quota.DefaultTier)
	fmt.Printf("  daily limits:      %v GiB\n", s.Quota.DailyLimitGiB)
	fmt.Printf("  split ceiling:     %d MiB\n", s.Quota.SplitCeilingMB)
	fmt.Printf("  download stagger:  %ds, max concurrent %d\n", s.Download.StaggerSeconds, s.Download.MaxConcurrent)
	fmt.Printf("  watchdog interval: %ds, idle timeout %dh\n", s.Watchdog.IntervalSeconds, s.Watchdog.IdleTimeoutHours)
	fmt.Printf("  control API:       %s:%d\n", s.Server.BindAddress, s.Server.BindPort)
	fmt.Printf("  owner ids:         %v\n", s.Transport.OwnerIDs)
}
