package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/staarai/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent generation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.EventRepo().QueryGenerations(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query generations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "No generations recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-8s  %-5s  %-8s  %-9s  %5s  %6s  %-3s  %-3s  %s\n",
			"Timestamp", "TEKS", "Grade", "Subject", "Kind", "Calls", "Align", "Key", "OK", "Output")
		fmt.Fprintln(out, strings.Repeat("─", 110))

		for _, r := range recs {
			align := "-"
			if r.AlignmentScore != nil {
				align = fmt.Sprintf("%.2f", *r.AlignmentScore)
				if r.AlignmentRevised {
					align += "r"
				}
			}
			key := "-"
			if r.DocKind == "worksheet" {
				key = mark(r.AnswerKeyFound)
			}
			output := r.OutputPath
			switch {
			case !r.Success:
				output = r.ErrorMessage
			case r.Fallback:
				output += " (fallback)"
			}
			fmt.Fprintf(out, "%-19s  %-8s  %-5s  %-8s  %-9s  %5d  %6s  %-3s  %-3s  %s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(r.TEKSCode, 8), r.Grade, r.Subject, r.DocKind,
				r.LLMCalls, align, key, mark(r.Success), output)
		}
		return nil
	},
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
}
