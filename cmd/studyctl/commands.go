package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/render"
)

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a PDF, JPG or PNG and wait for its analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newAPIClient().upload(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printSuccess("Analyzed %s", doc.FileName)
		out := cmd.OutOrStdout()
		printStatus(out, "id", "%s", doc.ID)
		if doc.Analysis != nil {
			printStatus(out, "title", "%s", doc.Analysis.Title)
			printStatus(out, "sections", "%d", len(doc.Analysis.Sections))
		}
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := newAPIClient().listDocuments(cmd.Context())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents yet.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFILE\tTYPE\tSTATUS\tUPLOADED")
		for _, d := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.FileName, strings.ToUpper(string(d.FileType)), d.Status,
				d.UploadedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a document's analysis as Markdown",
	Long: `Print a document's analysis as Markdown.

Examples:
  studyctl show 3f2a...
  studyctl show 3f2a... --collapse section-0,section-2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collapse, _ := cmd.Flags().GetStringSlice("collapse")

		doc, err := newAPIClient().getDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		switch {
		case doc.Status == models.StatusError:
			return fmt.Errorf("analysis of %s failed: %s", doc.FileName, doc.ErrorMessage)
		case doc.Status != models.StatusComplete || doc.Analysis == nil:
			printWarning("%s is still %s", doc.FileName, doc.Status)
			return nil
		}

		collapsed := make(map[string]bool, len(collapse))
		for _, id := range collapse {
			collapsed[strings.TrimSpace(id)] = true
		}
		return render.Markdown(cmd.OutOrStdout(), *doc.Analysis, render.Options{Collapsed: collapsed})
	},
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAPIClient().deleteDocument(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func init() {
	showCmd.Flags().StringSlice("collapse", nil, "comma-separated section ids to show as headings only")
}
