package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kpcalc/backend/internal/usecase"
)

func renderText(w io.Writer, out *usecase.CalculateOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "#\tName\tUnit\tQty\tCost\tCompetitor\tPrice\tSum\tMargin %\t")
	for _, l := range out.Pricing.Lines {
		competitor := "-"
		if l.CompetitorPrice > 0 {
			competitor = fmt.Sprintf("%.2f", l.CompetitorPrice)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%.2f\t%s\t%.2f\t%.2f\t%.1f\t\n",
			l.Number, l.Name, l.Unit, l.Quantity, l.Cost, competitor, l.OurPrice, l.Sum, l.MarginPercent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := out.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Contract total:    %.2f\n", s.ContractTotal)
	fmt.Fprintf(w, "Cost total:        %.2f\n", s.CostTotal)
	fmt.Fprintf(w, "Profit:            %.2f (%.1f%%)\n", s.Profit, s.MarginPercent)
	fmt.Fprintf(w, "Competitor total:  %.2f\n", s.CompetitorTotal)
	fmt.Fprintf(w, "Our competitive:   %.2f (discount %.2f%%)\n", s.OurCompetitiveTotal, s.DiscountPercent)
	fmt.Fprintf(w, "Positions:         %d (%d with competitor)\n", s.TotalPositions, s.PositionsWithCompetitor)
	if s.LossPositions > 0 {
		fmt.Fprintf(w, "Loss positions:    %d (%.2f total, median %.2f)\n", s.LossPositions, s.LossTotal, s.MedianLoss)
	}
	for _, ch := range s.Channels {
		fmt.Fprintf(w, "Channel %-10s %d positions, contract %.2f, profit %.2f\n", ch.Channel+":", ch.Positions, ch.ContractTotal, ch.Profit)
	}

	if out.Pricing.HasShortfall() {
		fmt.Fprintf(w, "\nTarget %.2f missed by %.2f: every reducible line is at its floor.\n",
			out.Pricing.TargetTotal, out.Pricing.Shortfall)
	}

	var header bool
	for _, l := range out.Pricing.Lines {
		for _, d := range l.Diagnostics {
			if !header {
				fmt.Fprintln(w, "\nNotes:")
				header = true
			}
			fmt.Fprintf(w, "  %d. [%s] %s\n", l.Number, d.Severity, d.Message())
		}
	}

	if out.WorkspaceID != "" {
		fmt.Fprintf(w, "\nWorkspace: %s\n", out.WorkspaceID)
	}
	return nil
}
