package commands

import (
	"context"

	"github.com/spf13/cobra"

	"grindvault/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run one backup cycle now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		// The cycle reports its outcome through the logs only.
		a.service.RunCycle(context.Background(), backup.ReasonManualCLI)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
