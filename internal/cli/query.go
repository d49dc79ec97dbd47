package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ByteReview/internal/domain"
	"ByteReview/internal/filter"
	"ByteReview/internal/ports"
)

type queryOptions struct {
	authors        []string
	summaryStatus  string
	originalStatus string
	bestByte       string
	year           string
	hasSummary     string
	edition        string
	search         string
}

func (q queryOptions) facets() filter.Facets {
	return filter.Facets{
		Authors:        q.authors,
		SummaryStatus:  filter.ParseStatus(q.summaryStatus),
		OriginalStatus: filter.ParseStatus(q.originalStatus),
		BestByte:       filter.ParseBool(q.bestByte),
		Year:           filter.ParseYear(q.year),
		HasSummary:     filter.ParseChoice(q.hasSummary),
		Edition:        q.edition,
		IDSearch:       q.search,
	}
}

func newQueryCommand(opts *rootOptions) *cobra.Command {
	var q queryOptions

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List document ids matching a facet selection",
		Example: `  bytereview query --best-byte=false --summary-status=accepted
  bytereview query --author Daaji --year 2023 --has-summary yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, release, err := opts.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer release()

			return runQuery(cmd.Context(), application.Store(), q.facets(), newPrinter(opts.out))
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&q.authors, "author", nil, "author (repeatable)")
	f.StringVar(&q.summaryStatus, "summary-status", "", "pending, accepted or rejected")
	f.StringVar(&q.originalStatus, "original-status", "", "pending, accepted or rejected")
	f.StringVar(&q.bestByte, "best-byte", "", "true or false")
	f.StringVar(&q.year, "year", "", "publication year")
	f.StringVar(&q.hasSummary, "has-summary", "", "yes or no")
	f.StringVar(&q.edition, "edition", "", "source document name")
	f.StringVar(&q.search, "q", "", "substring of the external id")
	return cmd
}

func runQuery(ctx context.Context, store ports.ByteStore, f filter.Facets, p *printer) error {
	pred := filter.Build(f)
	p.Info("Querying with %s", pred)

	total, err := store.Count(ctx, pred)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	docs, err := store.Find(ctx, pred, ports.FindOptions{})
	if err != nil {
		return fmt.Errorf("find documents: %w", err)
	}

	if len(docs) == 0 {
		p.Warning("No documents found matching the criteria.")
		return nil
	}

	rows := make([][]string, 0, len(docs))
	for i, doc := range docs {
		b, err := domain.DecodeByte(doc)
		if err != nil {
			return err
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), b.ID.Hex(), b.ExternalID, b.Title})
	}

	p.Header("Matching documents")
	if err := renderTable(p.out, []string{"#", "id", "uuid", "title"}, rows); err != nil {
		return err
	}
	p.Success("Total: %d", total)
	return nil
}
