// Command f2lnk is the CLI entrypoint: loads configuration, initializes
// logging, and dispatches to the serve/maintenance/configcheck
// subcommands defined in cmd/.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/f2lnk/f2lnk-go/cmd"
	"github.com/f2lnk/f2lnk-go/internal/conf"
	"github.com/f2lnk/f2lnk-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "f2lnk: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(settings.Main.Log.Path)
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "f2lnk: %v\n", err)
		os.Exit(1)
	}
}
