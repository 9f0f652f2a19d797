package stats

import (
	"context"
	"elabftw-tools/lib/elabapi"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("lib/stats")

// DefaultLimit is the page size used when counting, a category with more
// entries than the limit is reported as having exactly the limit.
const DefaultLimit = 100

type API interface {
	ReadItemsTypes(ctx context.Context) ([]elabapi.ItemsType, error)
	ReadItems(ctx context.Context, params elabapi.ReadItemsParams) ([]elabapi.Item, error)
}

type CategoryCount struct {
	ID      int64
	Title   string
	Entries int
	// true when Entries reached the limit and may be higher
	Capped bool
}

// CountEntries counts the entries in every resource category. the first
// api error aborts counting.
func CountEntries(ctx context.Context, api API, limit int) ([]CategoryCount, error) {
	ctx, span := tracer.Start(ctx, "stats:CountEntries")
	defer span.End()

	if limit <= 0 {
		limit = DefaultLimit
	}

	types, err := api.ReadItemsTypes(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("stats.categories", len(types)))

	result := make([]CategoryCount, 0, len(types))
	for _, t := range types {
		items, err := api.ReadItems(ctx, elabapi.ReadItemsParams{
			Category: t.ID,
			Limit:    limit,
		})
		if err != nil {
			return nil, fmt.Errorf("count category %d: %w", t.ID, err)
		}
		result = append(result, CategoryCount{
			ID:      t.ID,
			Title:   t.Title,
			Entries: len(items),
			Capped:  len(items) >= limit,
		})
	}
	return result, nil
}

func Render(out io.Writer, counts []CategoryCount) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Categories: %d", len(counts)))
	t.AppendHeader(table.Row{"ID", "Title", "Entries"})

	total := 0
	for _, c := range counts {
		entries := fmt.Sprint(c.Entries)
		if c.Capped {
			entries += "+"
		}
		t.AppendRow(table.Row{c.ID, c.Title, entries})
		total += c.Entries
	}
	t.AppendFooter(table.Row{"", "Total", total})
	t.Render()
}
