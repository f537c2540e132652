package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect leads",
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and manage orders",
}

func init() {
	leadsCmd.AddCommand(leadsListCmd)
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersClearCmd)
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads (remote first, local fallback)",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		d.track(cmd)
		leads, err := d.leads.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		for _, l := range leads {
			fmt.Printf("%6d  %-12s  %-24s  %s\n", l.ID, l.Tracking, l.Name, l.Email)
		}
		fmt.Printf("%d leads\n", len(leads))
		return nil
	},
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders (remote first, local fallback)",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		d.track(cmd)
		orders, err := d.orders.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		for _, o := range orders {
			fmt.Printf("%6d  %-36s  %-10s  %8d  %s\n", o.ID, o.TransactionID, o.Status, o.Amount, o.Tracking)
		}
		fmt.Printf("%d orders\n", len(orders))
		return nil
	},
}

var ordersClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		d.track(cmd)
		if err := d.orders.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("orders cleared")
		return nil
	},
}
