package main

import (
	"fmt"

	"github.com/example/leadsync/internal/adapter/gateway"
	"github.com/example/leadsync/internal/domain"
	"github.com/example/leadsync/internal/payment"
	"github.com/spf13/cobra"
)

var (
	chargeAmount   int64
	chargeName     string
	chargeEmail    string
	chargeCPF      string
	chargeTracking string
)

func init() {
	chargeCmd.Flags().Int64Var(&chargeAmount, "amount", 0, "amount in cents")
	chargeCmd.Flags().StringVar(&chargeName, "name", "", "customer name")
	chargeCmd.Flags().StringVar(&chargeEmail, "email", "", "customer email")
	chargeCmd.Flags().StringVar(&chargeCPF, "cpf", "", "customer cpf")
	chargeCmd.Flags().StringVar(&chargeTracking, "tracking", "", "originating lead tracking code")
	_ = chargeCmd.MarkFlagRequired("amount")
}

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Create a pix charge and watch it to a terminal state",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		d.track(cmd)

		ctl := payment.NewController(d.client, d.orders, d.log)
		charge, err := ctl.CreateCharge(cmd.Context(), gateway.ChargeRequest{
			Amount:        chargeAmount,
			CustomerName:  chargeName,
			CustomerEmail: chargeEmail,
			CPF:           chargeCPF,
			Tracking:      chargeTracking,
		})
		if err != nil {
			return err
		}
		fmt.Printf("transaction %s created, amount %d\n", charge.TransactionID, charge.Amount)
		if charge.QRCodeText != "" {
			fmt.Printf("pix copy-paste: %s\n", charge.QRCodeText)
		}
		if !charge.ExpiresAt.IsZero() {
			countdown := ctl.Countdown(cmd.Context(), charge.ExpiresAt, func(remaining int) {
				fmt.Printf("\rexpires in %4ds", remaining)
			})
			defer countdown.Stop()
		}
		return watchTransaction(cmd, ctl, charge.TransactionID)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <transactionId>",
	Short: "Poll an existing transaction to its terminal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		d.track(cmd)
		ctl := payment.NewController(d.client, d.orders, d.log)
		return watchTransaction(cmd, ctl, args[0])
	},
}

func watchTransaction(cmd *cobra.Command, ctl *payment.Controller, transactionID string) error {
	w := ctl.Watch(cmd.Context(), transactionID, payment.Callbacks{
		OnApproved: func() {
			fmt.Println("\npayment approved")
		},
		OnClosed: func(status domain.Status) {
			fmt.Printf("\npayment %s\n", status)
		},
	})
	defer w.Stop()
	select {
	case <-w.Done():
		return nil
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}
}
