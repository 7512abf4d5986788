package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List the snapshots currently held remotely",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		snapshots, err := a.remote.ListSnapshots(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}

		if len(snapshots) == 0 {
			fmt.Println("No snapshots found")
			return nil
		}

		for _, s := range snapshots {
			fmt.Printf("%s\t%d bytes\t%s\n", s.Name, s.Size, s.SHA)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}
