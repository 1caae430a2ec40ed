package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newVersionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <rfq-id>",
		Short: "List an RFQ's quotation versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rfq id")
			if err != nil {
				return err
			}
			return withDeps(g, func(d *Deps) error {
				versions, err := d.Services.Versions.GetVersions(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(versions) == 0 {
					fmt.Fprintln(out, "No versions yet.")
					return nil
				}
				for _, v := range versions {
					fmt.Fprintf(out, "v%d  %-18s %-12s estimated %s  final %s\n",
						v.VersionNumber, v.EntryType, v.Status, v.EstimatedPrice.StringFixed(2), v.FinalPrice.StringFixed(2))
					for _, it := range v.Items {
						sku := fmt.Sprintf("#%d", it.SkuID)
						if it.Sku != nil {
							sku = it.Sku.Sku
						}
						fmt.Fprintf(out, "    %-12s %6d x %s = %s\n", sku, it.Quantity, it.UnitPrice.String(), it.TotalPrice.String())
					}
				}
				return nil
			})
		},
	}
}

func newSummaryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <rfq-id>",
		Short: "Show the negotiation summary of an RFQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rfq id")
			if err != nil {
				return err
			}
			return withDeps(g, func(d *Deps) error {
				sum, err := d.Services.Negotiation.GetSummary(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Communications:     %d\n", sum.TotalCommunications)
				fmt.Fprintf(out, "SKU changes:        %d\n", sum.TotalSkuChanges)
				fmt.Fprintf(out, "Pending follow-ups: %d\n", sum.PendingFollowUps)
				if sum.FirstCommunicationDate != nil {
					fmt.Fprintf(out, "First contact:      %s\n", sum.FirstCommunicationDate.Format("2006-01-02 15:04"))
				}
				fmt.Fprintf(out, "Duration (days):    %d\n", sum.NegotiationDuration)
				for _, a := range sum.Degraded {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s could not be computed\n", a)
				}
				return nil
			})
		},
	}
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <rfq-id>",
		Short: "Export an RFQ's quotation history to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rfq id")
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("rfq-%d.xlsx", id)
			}
			return withDeps(g, func(d *Deps) error {
				data, err := d.Services.Export.ExportRfqWorkbook(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported RFQ %d to %s\n", id, output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default rfq-<id>.xlsx)")
	return cmd
}
