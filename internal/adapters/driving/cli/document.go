package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage ingested documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document with its segments and embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentGroupsCmd = &cobra.Command{
	Use:   "groups [id] [group...]",
	Short: "Show or replace a document's groups",
	Long: `With only an ID, prints the document's groups. With group names,
replaces the memberships. Pass no names and --clear to move the document
back to the default group.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentGroups,
}

var (
	documentListGroups []string
	documentSegments   bool
	documentContent    bool
	documentClear      bool
)

func init() {
	documentListCmd.Flags().StringSliceVarP(&documentListGroups, "group", "g", nil, "only list documents in these groups")
	documentShowCmd.Flags().BoolVar(&documentSegments, "segments", false, "list the document's segments")
	documentShowCmd.Flags().BoolVar(&documentContent, "content", false, "print the full extracted text")
	documentGroupsCmd.Flags().BoolVar(&documentClear, "clear", false, "reset memberships to the default group")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentGroupsCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), documentListGroups)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("%5d  %-32s %-5s %9s  %s  [%s]\n",
			d.ID, preview(d.Title, 32), d.FileType, humanize.Bytes(uint64(max(d.Size, 0))),
			humanize.Time(d.UpdatedAt), strings.Join(d.Groups, ", "))
	}
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	doc, err := documentService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:       %d\n", doc.ID)
	cmd.Printf("Key:      %s\n", doc.Key)
	cmd.Printf("Title:    %s\n", doc.Title)
	cmd.Printf("Type:     %s\n", doc.FileType)
	cmd.Printf("Size:     %s\n", humanize.Bytes(uint64(max(doc.Size, 0))))
	cmd.Printf("Groups:   %s\n", strings.Join(doc.Groups, ", "))
	cmd.Printf("Created:  %s\n", doc.CreatedAt.Format(time.DateTime))
	cmd.Printf("Updated:  %s\n", doc.UpdatedAt.Format(time.DateTime))

	if documentContent {
		cmd.Println()
		cmd.Println(doc.Content)
	}

	if documentSegments {
		segments, err := documentService.Segments(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get segments: %w", err)
		}
		cmd.Println()
		cmd.Printf("Segments (%d):\n", len(segments))
		for i := range segments {
			s := &segments[i]
			cmd.Printf("  #%-3d %4d tokens  %s\n", s.Index, s.TokenCount, preview(s.Content, 60))
		}
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := documentService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted document %d\n", id)
	return nil
}

func runDocumentGroups(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	names := args[1:]

	if len(names) > 0 || documentClear {
		if groupService == nil {
			return errors.New("group service not configured")
		}
		if err := groupService.SetDocumentGroups(cmd.Context(), id, names); err != nil {
			return fmt.Errorf("failed to set groups: %w", err)
		}
	}

	doc, err := documentService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	cmd.Printf("Document %d groups: %s\n", doc.ID, strings.Join(doc.Groups, ", "))
	return nil
}
