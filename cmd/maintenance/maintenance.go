// Package maintenance implements the `maintenance` subcommand: a
// one-shot toggle of the same sentinel file internal/admin.SetMaintenance
// uses at runtime, for an operator to flip before/after a deploy without
// going through the chat's /maintenance command.
package maintenance

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f2lnk/f2lnk-go/internal/admin"
)

// Command builds the `maintenance` subcommand.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance [on|off]",
		Short: "Toggle maintenance mode",
		Long:  "Enables or disables maintenance mode by writing or removing the maintenance sentinel file. With no argument, reports the current state.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return reportStatus()
			}
			return toggle(cmd, args[0])
		},
	}
	cmd.Flags().String("reason", "", "reason recorded when enabling maintenance mode")
	cmd.Flags().String("operator", "", "operator name recorded when enabling maintenance mode")
	return cmd
}

func reportStatus() error {
	if admin.IsMaintenanceMode() {
		reason, operator := admin.MaintenanceReason()
		fmt.Println("Maintenance mode is ON.")
		if reason != "" {
			fmt.Printf("Reason: %s\n", reason)
		}
		if operator != "" {
			fmt.Printf("Operator: %s\n", operator)
		}
		return nil
	}
	fmt.Println("Maintenance mode is OFF.")
	return nil
}

func toggle(cmd *cobra.Command, arg string) error {
	var on bool
	switch arg {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("maintenance: argument must be \"on\" or \"off\", got %q", arg)
	}

	reason, _ := cmd.Flags().GetString("reason")
	operator, _ := cmd.Flags().GetString("operator")

	msg, err := admin.SetMaintenance(on, reason, operator)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}
