package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/raphaelgruber/kbchat/internal/parser"
	"github.com/spf13/cobra"
)

var (
	docTags    []string
	docSearch  string
	docOutline bool
	docPrint   bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Browse the documents you have access to",
	Long: `Browse the knowledge-base documents visible to your account.

Subcommands:
  list        List documents (default), optionally filtered
  show <id>   Print a document's content or outline
  open <ref>  Open a document file in the browser

Examples:
  kbchat documents
  kbchat documents list --tags finance --search policy
  kbchat documents show 6650c1f2e4b0a1 --outline
  kbchat documents open ipr/trademarks/tmformfree-TM-12.pdf`,
	Args: cobra.NoArgs,
	RunE: runDocumentsList,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsOpenCmd = &cobra.Command{
	Use:   "open <path|id>",
	Short: "Open a document file in the browser",
	Long: `Open a document file in the browser.

The argument is either a stored path as shown under "Sources" of an answer,
or a document id whose path is looked up first. Use --print to only print the
resolved URL.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsOpen,
}

func init() {
	for _, c := range []*cobra.Command{documentsCmd, documentsListCmd} {
		c.Flags().StringSliceVarP(&docTags, "tags", "t", nil, "filter by access tags")
		c.Flags().StringVarP(&docSearch, "search", "s", "", "search text")
	}
	documentsShowCmd.Flags().BoolVar(&docOutline, "outline", false, "print only the heading outline")
	documentsOpenCmd.Flags().BoolVar(&docPrint, "print", false, "print the URL instead of opening it")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsOpenCmd)
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	search := models.DocumentSearch{Tags: docTags, Search: strings.TrimSpace(docSearch)}
	st := hooks.Documents(search).Load(ctx)
	if st.Err != "" {
		return fmt.Errorf("list documents: %s", st.Err)
	}

	if len(st.Data) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Printf("Documents (%d):\n\n", len(st.Data))
	for _, d := range st.Data {
		fmt.Printf("- %s  %s", d.Key(), d.Heading)
		if d.SubHeading != "" {
			fmt.Printf(" · %s", d.SubHeading)
		}
		fmt.Printf("  (%s)\n", models.FormatDate(d.UpdatedAt))
		if verbose {
			if d.Description != "" {
				fmt.Printf("  %s\n", models.Truncate(d.Description, 120))
			}
			if tags := d.Tags(); len(tags) > 0 {
				fmt.Printf("  Tags: %s\n", strings.Join(tags, ", "))
			}
		}
	}
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st := hooks.Document(args[0]).Load(ctx)
	if st.Err != "" {
		return fmt.Errorf("get document: %s", st.Err)
	}
	d := st.Data

	fmt.Println(defaultTheme.assistantStyle().Render(d.Heading))
	if d.SubHeading != "" {
		fmt.Println(d.SubHeading)
	}
	fmt.Println(defaultTheme.hintStyle().Render("Updated " + models.FormatDate(d.UpdatedAt)))
	if tags := d.Tags(); len(tags) > 0 {
		fmt.Println(defaultTheme.hintStyle().Render("Tags: " + strings.Join(tags, ", ")))
	}
	fmt.Println()

	if d.Content == "" {
		if d.Description != "" {
			fmt.Println(d.Description)
		}
		if d.Path != "" {
			fmt.Printf("\nOpen the file with: kbchat documents open %s\n", d.Key())
		}
		return nil
	}

	if docOutline {
		outline, err := parser.ParseOutline(d.Content)
		if err != nil {
			return fmt.Errorf("outline document: %w", err)
		}
		return outline.Write(cmd.OutOrStdout())
	}

	fmt.Print(renderMarkdown(d.Content))
	return nil
}

func runDocumentsOpen(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ref := models.Reference{ID: args[0], Title: args[0], URL: args[0]}
	if !looksLikePath(args[0]) {
		st := hooks.Document(args[0]).Load(ctx)
		if st.Err != "" {
			return fmt.Errorf("get document: %s", st.Err)
		}
		ref = models.Reference{ID: st.Data.Key(), Title: st.Data.Heading, URL: st.Data.Path}
	}

	if docPrint {
		u, err := api.AssetURL(ref.URL)
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	}
	return openReference(ref, notifier)
}

// looksLikePath tells stored file paths apart from document ids.
func looksLikePath(s string) bool {
	return strings.ContainsAny(s, "/.") || strings.HasPrefix(s, "http")
}

// openReference opens a cited document, announcing it through n.
func openReference(ref models.Reference, n notify.Notifier) error {
	u, err := api.AssetURL(ref.URL)
	if errors.Is(err, client.ErrNoURL) {
		n.Notify(notify.Notice{Title: "Error", Description: client.ErrNoURL.Error()})
		return err
	}
	if err != nil {
		return err
	}

	n.Notify(notify.Notice{Title: "Redirecting", Description: fmt.Sprintf("Redirecting to %s...", ref.Title)})
	return openURL(u)
}
