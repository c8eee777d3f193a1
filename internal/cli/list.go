package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/noah-isme/wellness-admin-console/internal/listing"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/internal/service"
)

const maxCellWidth = 36

type listFlags struct {
	filters []string
	search  string
	page    int
	limit   int
	sortBy  string
	order   string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "Filter as key=value; repeatable")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Free-text search")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "Page to show")
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "Page size (defaults to LIST_DEFAULT_LIMIT)")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "Sort field (defaults to the resource's)")
	cmd.Flags().StringVar(&f.order, "order", "", "Sort order: asc or desc")
}

func newListCmd(a *app) *cobra.Command {
	var (
		flags  listFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Show one page of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, state, err := a.loadPage(cmd, args[0], flags)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out(cmd))
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}
			printTable(out(cmd), desc, state)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

// loadPage drives a list controller the way the console does: mount with
// the filters, apply the search, then move to the requested page.
func (a *app) loadPage(cmd *cobra.Command, name string, flags listFlags) (service.Descriptor, listing.State[models.Document], error) {
	var state listing.State[models.Document]
	b, err := a.resource(name)
	if err != nil {
		return service.Descriptor{}, state, err
	}
	desc := b.Descriptor
	filters, err := models.ParseFilterPairs(flags.filters)
	if err != nil {
		return desc, state, err
	}
	sortBy, order := flags.sortBy, flags.order
	if sortBy == "" {
		sortBy = desc.DefaultSortBy
		if order == "" {
			order = desc.DefaultSortOrder
		}
	}
	limit := flags.limit
	if limit <= 0 {
		limit = a.cfg.Listing.DefaultLimit
	}

	ctrl := listing.New[models.Document](b.Documents, listing.Options{
		Resource:       desc.Name,
		InitialFilters: filters,
		Limit:          limit,
		SortBy:         sortBy,
		SortOrder:      order,
		ToggleField:    desc.ToggleField,
		Toggle:         b.Toggle(),
		Logger:         a.logger,
	})
	defer ctrl.Close()

	ctx := cmd.Context()
	if flags.search != "" {
		ctrl.Search(flags.search)
		ctrl.FlushSearch()
	} else if flags.page <= 1 {
		ctrl.Mount(ctx)
	}
	if flags.page > 1 {
		ctrl.ChangePage(ctx, flags.page)
	}

	state = ctrl.State()
	if state.Error != nil {
		return desc, state, errors.New(*state.Error)
	}
	return desc, state, nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags  listFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <resource> --format csv|pdf --out <file>",
		Short: "Export one page of a resource to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, state, err := a.loadPage(cmd, args[0], flags)
			if err != nil {
				return err
			}
			file, err := service.NewExportService(nil, nil, service.ExportConfig{}, a.logger).Render(desc, state, format)
			if err != nil {
				return err
			}
			if output == "" {
				output = file.Filename
			}
			if output == "-" {
				_, err = out(cmd).Write(file.Data)
				return err
			}
			if err := os.WriteFile(output, file.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s (%s)\n", len(state.Items), output, service.PageSummary(state.Pagination))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or pdf")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file, - for stdout (defaults to a generated name)")
	return cmd
}

// printTable writes a fixed-width table of the descriptor's columns followed
// by the pagination summary.
func printTable(w io.Writer, desc service.Descriptor, state listing.State[models.Document]) {
	if len(state.Items) == 0 {
		fmt.Fprintf(w, "No %s found.\n", desc.Name)
		fmt.Fprintln(w, service.PageSummary(state.Pagination))
		return
	}
	widths := make([]int, len(desc.Columns))
	rows := make([][]string, len(state.Items))
	for i, col := range desc.Columns {
		widths[i] = utf8.RuneCountInString(col.Label)
	}
	for r, item := range state.Items {
		row := make([]string, len(desc.Columns))
		for i, col := range desc.Columns {
			row[i] = clip(item.String(col.Key), maxCellWidth)
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
		rows[r] = row
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			if i == len(cells)-1 {
				fmt.Fprint(w, cell)
				continue
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
	headers := make([]string, len(desc.Columns))
	for i, col := range desc.Columns {
		headers[i] = col.Label
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, service.PageSummary(state.Pagination))
}

func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
