package conf

import "fmt"

// validateSettings checks the invariants the rest of the engine assumes
// hold: non-empty scratch roots, a sane stagger/concurrency pair, and a
// default quota tier that actually has a limit configured.
func validateSettings(s *Settings) error {
	if s.Storage.TasksRoot == "" {
		return fmt.Errorf("storage.tasksroot must not be empty")
	}
	if s.Storage.DownloadRoot == "" {
		return fmt.Errorf("storage.downloadroot must not be empty")
	}
	if s.Download.StaggerSeconds < 0 {
		return fmt.Errorf("download.staggerseconds must be >= 0")
	}
	if s.Download.MaxConcurrent <= 0 {
		s.Download.MaxConcurrent = 4
	}
	if s.Quota.SplitCeilingMB <= 0 {
		s.Quota.SplitCeilingMB = 1996
	}
	if s.Quota.DefaultTier == "" {
		s.Quota.DefaultTier = "free"
	}
	if s.Quota.DailyLimitGiB == nil {
		s.Quota.DailyLimitGiB = map[string]float64{"free": 2}
	}
	if _, ok := s.Quota.DailyLimitGiB[s.Quota.DefaultTier]; !ok {
		return fmt.Errorf("quota.dailylimitgib has no entry for default tier %q", s.Quota.DefaultTier)
	}
	if s.Watchdog.IntervalSeconds <= 0 {
		s.Watchdog.IntervalSeconds = 300
	}
	if s.Watchdog.CPUThresholdPct <= 0 {
		s.Watchdog.CPUThresholdPct = 90
	}
	if s.Watchdog.RAMThresholdPct <= 0 {
		s.Watchdog.RAMThresholdPct = 90
	}
	if s.Watchdog.IdleTimeoutHours <= 0 {
		s.Watchdog.IdleTimeoutHours = 24
	}
	return nil
}

// IsOwner reports whether userID appears in the configured owner list.
func (s *Settings) IsOwner(userID int64) bool {
	for _, id := range s.Transport.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
