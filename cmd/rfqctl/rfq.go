package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/internal/services"
	"github.com/spf13/cobra"
)

func newRfqCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfq",
		Short: "Create, list, show and transition RFQs",
	}
	cmd.AddCommand(
		newRfqCreateCmd(g),
		newRfqListCmd(g),
		newRfqShowCmd(g),
		newRfqTransitionCmd(g),
	)
	return cmd
}

func newRfqCreateCmd(g *globalFlags) *cobra.Command {
	var (
		in         services.RfqInput
		customerID uint
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new RFQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerID != 0 {
				in.CustomerID = &customerID
			}
			return withDeps(g, func(d *Deps) error {
				rfq, err := d.Services.Rfqs.CreateRfq(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created RFQ %d (%s)\n", rfq.ID, rfq.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "RFQ title (required)")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Description")
	cmd.Flags().UintVarP(&customerID, "customer", "c", 0, "Customer id")
	cmd.Flags().StringVar(&in.CreatedBy, "by", "", "Who opened the RFQ")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newRfqListCmd(g *globalFlags) *cobra.Command {
	var f services.RfqFilter
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List RFQs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = lifecycle.Status(strings.ToUpper(status))
			return withDeps(g, func(d *Deps) error {
				rfqs, total, err := d.Services.Rfqs.ListRfqs(cmd.Context(), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(rfqs) == 0 {
					fmt.Fprintln(out, "No RFQs found.")
					return nil
				}
				fmt.Fprintf(out, "Showing %d of %d RFQs:\n\n", len(rfqs), total)
				for _, rfq := range rfqs {
					fmt.Fprintf(out, "%6d  %-12s  %s\n", rfq.ID, rfq.Status, rfq.Title)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", 50, "Maximum number of RFQs to display")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "Number of RFQs to skip")
	return cmd
}

func newRfqShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <rfq-id>",
		Short: "Show an RFQ and what its status allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rfq id")
			if err != nil {
				return err
			}
			return withDeps(g, func(d *Deps) error {
				rfq, err := d.Services.Rfqs.GetRfq(cmd.Context(), id)
				if err != nil {
					return err
				}
				displayRfq(cmd.OutOrStdout(), rfq)
				return nil
			})
		},
	}
}

func displayRfq(out io.Writer, rfq *models.Rfq) {
	rules := rfq.Rules()
	fmt.Fprintf(out, "RFQ %d: %s\n", rfq.ID, rfq.Title)
	fmt.Fprintf(out, "  Status: %s\n", rfq.Status)
	if rfq.Customer != nil {
		fmt.Fprintf(out, "  Customer: %s\n", rfq.Customer.Name)
	}
	if rfq.CurrentVersionID != nil {
		fmt.Fprintf(out, "  Current version id: %d\n", *rfq.CurrentVersionID)
	}
	fmt.Fprintf(out, "  Can create version: %t\n", rules.CanCreateVersion)
	next := make([]string, len(rules.NextPossibleStatuses))
	for i, s := range rules.NextPossibleStatuses {
		next[i] = string(s)
	}
	if len(next) == 0 {
		next = []string{"-"}
	}
	fmt.Fprintf(out, "  Next statuses: %s\n", strings.Join(next, ", "))
}

func newRfqTransitionCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "transition <rfq-id> <status>",
		Short: "Move an RFQ to one of its next statuses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rfq id")
			if err != nil {
				return err
			}
			target, err := lifecycle.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return withDeps(g, func(d *Deps) error {
				rfq, err := d.Services.Rfqs.TransitionRfq(cmd.Context(), id, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "RFQ %d is now %s\n", rfq.ID, rfq.Status)
				return nil
			})
		},
	}
}
