package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild the inventory counter from a full scan of bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		booked, err := a.repo.Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d rooms booked\n", booked, a.cfg.TotalHotelRooms)
		if !a.cfg.InventoryGuard {
			fmt.Fprintln(cmd.OutOrStdout(), "inventory guard disabled, counter not written")
		}
		return nil
	},
}
