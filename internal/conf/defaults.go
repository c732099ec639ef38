package conf

import "github.com/spf13/viper"

// setDefaultConfig registers fallback values for every setting viper
// might not find in config.yaml or the environment. Keeping defaults in
// code (not just in the embedded YAML) means a corrupted or partial
// config file still yields a runnable configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "f2lnk")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/engine.log")
	viper.SetDefault("main.log.maxsizemb", 50)
	viper.SetDefault("main.log.maxbackups", 5)
	viper.SetDefault("main.log.maxagedays", 14)

	viper.SetDefault("transport.pinginterval", 300)

	viper.SetDefault("storage.tasksroot", "data/tasks")
	viper.SetDefault("storage.downloadroot", "data/downloads")

	viper.SetDefault("quota.defaulttier", "free")
	viper.SetDefault("quota.splitceilingmb", 1996)

	viper.SetDefault("download.staggerseconds", 5)
	viper.SetDefault("download.maxconcurrent", 4)
	viper.SetDefault("download.idlereadtimeout", 600)

	viper.SetDefault("watchdog.intervalseconds", 300)
	viper.SetDefault("watchdog.startupgraceseconds", 60)
	viper.SetDefault("watchdog.cputhresholdpct", 90.0)
	viper.SetDefault("watchdog.ramthresholdpct", 90.0)
	viper.SetDefault("watchdog.idletimeouthours", 24)

	viper.SetDefault("server.bindaddress", "127.0.0.1")
	viper.SetDefault("server.bindport", 8090)

	viper.SetDefault("telemetry.environment", "production")
}
