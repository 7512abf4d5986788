package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot.json>",
	Short: "Restore a snapshot file into the live store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read snapshot file: %w", err)
		}

		result, err := a.service.Restore(context.Background(), data)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Println(result.Message())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
