// Package cmd wires the f2lnk CLI: serve runs the task orchestration
// engine, maintenance and configcheck are operator one-shots, and
// authors/license are the same inert info commands the teacher's CLI
// carried, grounded on the teacher's cmd/root.go persistent-flag style.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/f2lnk/f2lnk-go/cmd/authors"
	"github.com/f2lnk/f2lnk-go/cmd/configcheck"
	"github.com/f2lnk/f2lnk-go/cmd/license"
	"github.com/f2lnk/f2lnk-go/cmd/maintenance"
	"github.com/f2lnk/f2lnk-go/cmd/serve"
	"github.com/f2lnk/f2lnk-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "f2lnk",
		Short: "f2lnk task orchestration engine CLI",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		maintenance.Command(),
		configcheck.Command(),
		authors.Command(),
		license.Command(),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Server.BindAddress, "bind-address", viper.GetString("server.bindaddress"), "Control API bind address")
	rootCmd.PersistentFlags().IntVar(&settings.Server.BindPort, "bind-port", viper.GetInt("server.bindport"), "Control API bind port")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
