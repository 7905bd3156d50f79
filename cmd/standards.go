package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/staarai/internal/teks"
)

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "List catalog standards for a grade and subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if tmpl, _ := cmd.Flags().GetBool("template"); tmpl {
			return teks.WriteTemplate(out)
		}

		gradeFlag, _ := cmd.Flags().GetString("grade")
		subjectFlag, _ := cmd.Flags().GetString("subject")
		subject, err := teks.ParseSubject(subjectFlag)
		if err != nil {
			return err
		}

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		stds := catalog.ListBy(teks.NormalizeGrade(gradeFlag), subject)
		if len(stds) == 0 {
			fmt.Fprintln(out, "No standards found. Load a catalog with STAAR_TEKS_CSV.")
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-5s  %s\n", "Code", "Grade", "Description")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, s := range stds {
			fmt.Fprintf(out, "%-8s  %-5s  %s\n", s.Code, s.Grade, truncate(s.Description(), 64))
		}
		return nil
	},
}

func init() {
	standardsCmd.Flags().String("grade", "3", "Grade (K-12)")
	standardsCmd.Flags().String("subject", "math", "Subject: math or reading")
	standardsCmd.Flags().Bool("template", false, "Print an empty catalog CSV with the expected header")
}
