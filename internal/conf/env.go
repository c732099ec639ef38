package conf

import (
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides layers environment variables on top of whatever
// config.yaml/viper produced. Env vars win: they are how the engine is
// configured in containerized deployments where editing config.yaml is
// inconvenient.
func applyEnvOverrides(s *Settings) {
	strVar(&s.Transport.APIID, "F2LNK_API_ID")
	strVar(&s.Transport.APIHash, "F2LNK_API_HASH")
	strVar(&s.Transport.BotToken, "F2LNK_BOT_TOKEN")
	if v, ok := os.LookupEnv("F2LNK_WORKER_TOKENS"); ok {
		s.Transport.WorkerTokens = splitFields(v)
	}
	if v, ok := os.LookupEnv("F2LNK_OWNER_IDS"); ok {
		s.Transport.OwnerIDs = parseInt64List(splitFields(v))
	}
	intVar(&s.Transport.LogChannelID, "F2LNK_LOG_CHANNEL_ID")
	intVar(&s.Transport.BinChannelID, "F2LNK_BIN_CHANNEL_ID")
	intVarI(&s.Transport.PingInterval, "F2LNK_PING_INTERVAL")

	strVar(&s.Storage.DatabaseURI, "F2LNK_DATABASE_URI")
	strVar(&s.Storage.TasksRoot, "F2LNK_TASKS_ROOT")
	strVar(&s.Storage.DownloadRoot, "F2LNK_DOWNLOAD_ROOT")
	strVar(&s.Storage.PublicBaseURL, "F2LNK_PUBLIC_BASE_URL")

	strVar(&s.Quota.DefaultTier, "F2LNK_DEFAULT_PLAN")
	if v, ok := os.LookupEnv("F2LNK_DAILY_LIMIT_GIB"); ok {
		s.Quota.DailyLimitGiB = parseTierLimits(v)
	}

	strVar(&s.Torrent.RPCHost, "F2LNK_TORRENT_RPC_HOST")
	intVarI(&s.Torrent.RPCPort, "F2LNK_TORRENT_RPC_PORT")
	strVar(&s.Torrent.RPCUser, "F2LNK_TORRENT_RPC_USER")
	strVar(&s.Torrent.RPCPass, "F2LNK_TORRENT_RPC_PASS")

	strVar(&s.Server.BindAddress, "F2LNK_BIND_ADDRESS")
	intVarI(&s.Server.BindPort, "F2LNK_BIND_PORT")

	strVar(&s.Notify.WebhookURL, "F2LNK_NOTIFY_WEBHOOK_URL")
	strVar(&s.Telemetry.SentryDSN, "F2LNK_SENTRY_DSN")
}

func strVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func intVar(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func intVarI(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitFields(v string) []string {
	fields := strings.Fields(v)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseInt64List(fields []string) []int64 {
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// parseTierLimits parses "free=2,plus=10,pro=50" into a tier->GiB map.
func parseTierLimits(v string) map[string]float64 {
	out := make(map[string]float64)
	for _, pair := range strings.Split(v, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			continue
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64); err == nil {
			out[strings.TrimSpace(kv[0])] = n
		}
	}
	return out
}
