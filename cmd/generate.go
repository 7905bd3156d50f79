package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/staarai/internal/contentgen"
	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/pipeline"
	"github.com/abhisek/staarai/internal/teks"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a lesson plan, worksheet and answer key for one standard",
	Example: `  staarai generate --code 3.6A --grade 3 --subject math --types mc
  staarai generate --code 3.6A --kind worksheet --bilingual --notes "use pattern blocks"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, sel, err := generateRequest(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		provider, err := buildProvider(ctx, s.EventRepo())
		if err != nil {
			return errors.New(llm.UserMessage(err))
		}

		res, err := buildPipeline(provider, s.EventRepo()).Run(ctx, req, sel)
		if err != nil {
			return errors.New(llm.UserMessage(err))
		}
		printResult(cmd, res)
		return nil
	},
}

// generateRequest turns flags into a request and document selection.
func generateRequest(cmd *cobra.Command) (contentgen.Request, pipeline.Selection, error) {
	code, _ := cmd.Flags().GetString("code")
	gradeFlag, _ := cmd.Flags().GetString("grade")
	subjectFlag, _ := cmd.Flags().GetString("subject")
	kind, _ := cmd.Flags().GetString("kind")
	typesFlag, _ := cmd.Flags().GetString("types")
	bilingual, _ := cmd.Flags().GetBool("bilingual")
	strict, _ := cmd.Flags().GetBool("strict")
	notes, _ := cmd.Flags().GetString("notes")
	files, _ := cmd.Flags().GetStringSlice("attachments")

	code = strings.TrimSpace(code)
	if code == "" {
		return contentgen.Request{}, "", errors.New("--code is required")
	}
	subject, err := teks.ParseSubject(subjectFlag)
	if err != nil {
		return contentgen.Request{}, "", err
	}
	sel, err := pipeline.ParseSelection(kind)
	if err != nil {
		return contentgen.Request{}, "", err
	}
	types, err := contentgen.ParseQuestionTypes(typesFlag)
	if err != nil {
		return contentgen.Request{}, "", err
	}
	attachments, err := readAttachments(files)
	if err != nil {
		return contentgen.Request{}, "", err
	}

	grade := teks.NormalizeGrade(gradeFlag)
	if grade == "" {
		grade = teks.GradeFromCode(code)
	}
	catalog, err := loadCatalog()
	if err != nil {
		return contentgen.Request{}, "", err
	}

	return contentgen.Request{
		Standard:        catalog.Resolve(code, grade, subject),
		Bilingual:       bilingual,
		QuestionTypes:   types,
		TeacherNotes:    strings.TrimSpace(notes),
		AttachmentsText: attachments,
		StrictAlign:     strict,
	}, sel, nil
}

// readAttachments concatenates the text of each file under a name header.
// Truncation happens when the prompt is built.
func readAttachments(paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("read attachment: %w", err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", filepath.Base(p), strings.TrimSpace(string(data)))
	}
	return b.String(), nil
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", res.RunID)

	for _, doc := range []struct {
		label string
		res   *pipeline.DocumentResult
	}{{"Lesson plan", res.Lesson}, {"Worksheet", res.Worksheet}} {
		if doc.res == nil {
			continue
		}
		fmt.Fprintf(out, "\n%s: %s\n", doc.label, doc.res.Path)
		if doc.res.KeyPath != "" {
			fmt.Fprintf(out, "Answer key: %s\n", doc.res.KeyPath)
		}
		fmt.Fprintf(out, "  calls: %d (+%d review)  repaired: %v  revised: %v  fallback: %v\n",
			doc.res.Calls, doc.res.JudgeCalls, doc.res.Repaired, doc.res.Revised, doc.res.Document.Fallback)
		if appCfg.ShowAlignment && doc.res.Alignment != nil {
			a := doc.res.Alignment
			fmt.Fprintf(out, "  alignment: %.2f (threshold %.2f)\n", a.Score, doc.res.Threshold)
			for _, issue := range a.Issues {
				fmt.Fprintf(out, "    - %s\n", issue)
			}
			if len(a.NonAlignedItems) > 0 {
				fmt.Fprintf(out, "    non-aligned: %s\n", strings.Join(a.NonAlignedItems, ", "))
			}
		}
		if !doc.res.Structure.Valid() {
			fmt.Fprintf(out, "  structure: %s\n", doc.res.Structure.Summary())
		}
	}

	if res.Outputs.ZipPath != "" {
		fmt.Fprintf(out, "\nBundle: %s\n", res.Outputs.ZipPath)
	}
	for _, n := range res.Notices {
		fmt.Fprintf(out, "Note: %s\n", n)
	}
}

func init() {
	f := generateCmd.Flags()
	f.String("code", "", "TEKS code, e.g. 3.6A")
	f.String("grade", "", "Grade (K-12); derived from the code when omitted")
	f.String("subject", "math", "Subject: math or reading")
	f.String("kind", "both", "Documents to generate: lesson, worksheet or both")
	f.String("types", "mc", "Question types: comma-separated mc, sa, or")
	f.Bool("bilingual", false, "Include Spanish sections and items")
	f.Bool("strict", true, "Verify TEKS alignment and revise weak content")
	f.String("notes", "", "Teacher notes passed to the model")
	f.StringSlice("attachments", nil, "Plain-text files whose contents are excerpted into the prompt")
}
