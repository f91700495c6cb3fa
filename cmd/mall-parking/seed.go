package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mall-parking/internal/parking"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the slot inventory with the default layout",
	Long: `Replace the slot inventory with the default layout. Refused while any
vehicle is parked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		slots, err := a.lot.SeedSlots(ctx, parking.DefaultSlotSpecs())
		if err != nil {
			return fmt.Errorf("failed to seed slots: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d slots\n", len(slots))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
