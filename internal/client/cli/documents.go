package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/services"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const (
	previewLen = 500
	excerptLen = 200
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	return t
}

// fileTypeLabel turns a MIME type into its short upper-case subtype.
func fileTypeLabel(mime string) string {
	_, sub, ok := strings.Cut(mime, "/")
	if !ok || sub == "" {
		return "Unknown"
	}
	return strings.ToUpper(sub)
}

func sizeMB(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (a *App) currentPage() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// Docs lists one page of documents, newest first.
func (a *App) Docs(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 1 {
			return fmt.Errorf("invalid page %q", args[0])
		}
		page = p
	}
	return a.listDocuments(ctx, page)
}

func (a *App) listDocuments(ctx context.Context, page int) error {
	res, err := a.documentService.List(ctx, models.ListQuery{Page: page, Limit: a.config.PageSize})
	if err != nil {
		return fmt.Errorf("failed to fetch documents: %w", err)
	}

	a.mu.Lock()
	a.page = page
	a.mu.Unlock()

	if len(res.Data) == 0 {
		if page == 1 {
			fmt.Fprintln(a.out, "No documents yet. Use 'upload <path>' to add one.")
		} else {
			fmt.Fprintf(a.out, "No documents on page %d.\n", page)
		}
		return nil
	}

	t := newTable(a.out, "ID", "Title", "Type", "Size", "Status", "Created")
	for _, d := range res.Data {
		t.Append([]string{
			strconv.FormatInt(d.ID, 10),
			d.Title,
			fileTypeLabel(d.FileType),
			sizeMB(d.FileSize),
			string(d.Status),
			humanize.Time(d.CreatedAt.Time),
		})
	}
	t.Render()

	pages := res.Pagination.TotalPages
	if pages == 0 && a.config.PageSize > 0 {
		pages = (res.Pagination.Total + a.config.PageSize - 1) / a.config.PageSize
	}
	fmt.Fprintf(a.out, "Page %d of %d (%d documents)\n", page, max(pages, 1), res.Pagination.Total)
	return nil
}

// Show prints one document with its summary and a text preview.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	d, err := a.documentService.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "#%d %s\n", d.ID, d.Title)
	fmt.Fprintf(a.out, "File:    %s (%s, %s)\n", d.FileName, fileTypeLabel(d.FileType), sizeMB(d.FileSize))
	fmt.Fprintf(a.out, "Status:  %s\n", d.Status)
	fmt.Fprintf(a.out, "Created: %s\n", humanize.Time(d.CreatedAt.Time))
	if d.Summary != "" {
		fmt.Fprintf(a.out, "\nSummary:\n%s\n", d.Summary)
	}
	if d.ExtractedText != "" {
		preview := truncate(d.ExtractedText, previewLen)
		if preview != d.ExtractedText {
			preview += "..."
		}
		fmt.Fprintf(a.out, "\nText:\n%s\n", preview)
	} else {
		fmt.Fprintln(a.out, "\nNo extracted text yet; summarize and embed are unavailable.")
	}
	return nil
}

// Upload sends a local file or an S3 object. Remaining arguments form the
// title.
func (a *App) Upload(ctx context.Context, args []string) error {
	src, err := a.opener.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer src.Body.Close()

	d, err := a.documentService.Upload(ctx, services.UploadRequest{
		FileName: src.Name,
		Size:     src.Size,
		Body:     src.Body,
		Title:    strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %q as document %d (%s)\n", d.Title, d.ID, d.Status)
	return nil
}

// Delete asks for confirmation, deletes the document and refreshes the list.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	d, err := a.documentService.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", d.Title), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.documentService.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	fmt.Fprintln(a.out, "Deleted.")
	return a.listDocuments(ctx, a.currentPage())
}

func (a *App) Summarize(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.documentService.Summarize(ctx, id); err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}
	fmt.Fprintln(a.out, "Summary generated.")
	return a.listDocuments(ctx, a.currentPage())
}

func (a *App) Embed(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.documentService.GenerateEmbeddings(ctx, id); err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	fmt.Fprintln(a.out, "Embeddings generated.")
	return a.listDocuments(ctx, a.currentPage())
}

// Search runs a semantic search and prints the matches with a short excerpt.
func (a *App) Search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	results, err := a.documentService.Search(ctx, query, a.config.SearchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(a.out, "No matching documents.")
		return nil
	}

	fmt.Fprintf(a.out, "Search Results (%d)\n", len(results))
	t := newTable(a.out, "ID", "Title", "Match", "Created", "Excerpt")
	for _, r := range results {
		t.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			fmt.Sprintf("%.1f%% match", r.Similarity*100),
			r.CreatedAt.Local().Format("1/2/2006"),
			strings.Join(strings.Fields(truncate(r.ExtractedText, excerptLen)), " ") + "...",
		})
	}
	t.Render()
	return nil
}
