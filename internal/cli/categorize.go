package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ByteReview/internal/config"
	"ByteReview/internal/domain"
	"ByteReview/internal/infrastructure/csvsource"
	"ByteReview/internal/usecase"
)

const previewCount = 3

var errCancelled = errors.New("operation cancelled")

type categorizeOptions struct {
	idsPath          string
	idsColumn        string
	categoriesPath   string
	categoriesColumn string
	field            string
	outputField      string
	workers          int
	yes              bool
}

// categorizeJob is the loaded input of one batch run.
type categorizeJob struct {
	IDs         []string
	Categories  []string
	Field       string
	OutputField string
	Yes         bool
}

func newCategorizeCommand(opts *rootOptions) *cobra.Command {
	var o categorizeOptions

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Assign each listed byte one category with the chat model",
		Example: `  bytereview categorize --ids ids.csv --ids-column uuid \
    --categories categories.csv --categories-column name \
    --field content_summary --output-field theme --workers 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ids, err := csvsource.LoadIDs(o.idsPath, o.idsColumn)
			if err != nil {
				return err
			}
			categories, err := csvsource.LoadCategories(o.categoriesPath, o.categoriesColumn)
			if err != nil {
				return err
			}

			application, logger, release, err := opts.open(ctx, func(cfg *config.Config) error {
				return cfg.ValidateCategorize()
			})
			if err != nil {
				return err
			}
			defer release()

			logger.Info("categorize started", "ids", len(ids), "categories", len(categories), "field", o.field, "output_field", o.outputField)
			return runCategorize(ctx, application.Categorizer(o.workers), categorizeJob{
				IDs:         ids,
				Categories:  categories,
				Field:       o.field,
				OutputField: o.outputField,
				Yes:         o.yes,
			}, newPrinter(opts.out), opts.in)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.idsPath, "ids", "", "CSV file listing external ids")
	f.StringVar(&o.idsColumn, "ids-column", domain.FieldExternalID, "column holding the ids")
	f.StringVar(&o.categoriesPath, "categories", "", "CSV file listing the allowed categories")
	f.StringVar(&o.categoriesColumn, "categories-column", "category", "column holding the categories")
	f.StringVar(&o.field, "field", domain.FieldSummary, "field whose text is categorized")
	f.StringVar(&o.outputField, "output-field", "", "field the category is written to")
	f.IntVar(&o.workers, "workers", 0, "parallel model calls (default from config)")
	f.BoolVarP(&o.yes, "yes", "y", false, "apply updates without asking")
	_ = cmd.MarkFlagRequired("ids")
	_ = cmd.MarkFlagRequired("categories")
	_ = cmd.MarkFlagRequired("output-field")
	return cmd
}

func runCategorize(ctx context.Context, c *usecase.Categorizer, job categorizeJob, p *printer, in io.Reader) error {
	if len(job.IDs) == 0 {
		p.Warning("No ids found in CSV")
		return nil
	}
	if len(job.Categories) == 0 {
		return usecase.ErrNoCategories
	}
	p.Info("Loaded %d ids and %d categories", len(job.IDs), len(job.Categories))
	answers := bufio.NewReader(in)

	check, err := c.CheckFields(ctx, job.IDs, job.Field)
	if err != nil {
		return err
	}
	if err := printFieldCheck(p, check, job.Field); err != nil {
		return err
	}

	inUse, err := c.FieldInUse(ctx, job.IDs, job.OutputField)
	if err != nil {
		return err
	}
	if !inUse && check.Found > 0 && !job.Yes {
		p.Warning("Output field %q does not exist on the listed records", job.OutputField)
		if !ask(answers, p, "Do you want to continue?") {
			p.Print("Operation cancelled.")
			return errCancelled
		}
	}

	p.Info("Processing %d records...", check.HasField)
	results := c.Classify(ctx, check.Records, job.Categories)
	if err := printResults(p, results); err != nil {
		return err
	}

	counts := usecase.Count(results)
	categorized := counts[usecase.OutcomeCategorized]
	if categorized == 0 {
		p.Warning("Nothing to update.")
		return nil
	}
	if !job.Yes && !ask(answers, p, fmt.Sprintf("Apply updates to %d documents?", categorized)) {
		p.Print("Updates cancelled.")
		return errCancelled
	}

	stats, err := c.Apply(ctx, results, job.OutputField)
	if err != nil {
		return err
	}

	p.Header("Update statistics")
	if err := renderTable(p.out, []string{"outcome", "count"}, [][]string{
		{"updated", fmt.Sprint(stats.Success)},
		{"failed", fmt.Sprint(stats.Failed)},
		{"skipped", fmt.Sprint(stats.Skipped)},
	}); err != nil {
		return err
	}
	if stats.Failed > 0 {
		p.Warning("%d updates failed; see the log for details", stats.Failed)
		return nil
	}
	p.Success("Updated %d documents", stats.Success)
	return nil
}

func printFieldCheck(p *printer, check usecase.FieldCheck, field string) error {
	p.Header("Field check: " + field)
	if err := renderTable(p.out, []string{"metric", "count"}, [][]string{
		{"requested", fmt.Sprint(check.Total)},
		{"found", fmt.Sprint(check.Found)},
		{"missing", fmt.Sprint(check.Missing)},
		{"with field", fmt.Sprint(check.HasField)},
		{"without field", fmt.Sprint(check.NoField)},
	}); err != nil {
		return err
	}
	if check.Missing > 0 {
		p.Warning("Missing ids: %s", strings.Join(check.MissingIDs, ", "))
	}
	return nil
}

func printResults(p *printer, results []usecase.Result) error {
	counts := usecase.Count(results)
	p.Header("Categorization results")
	if err := renderTable(p.out, []string{"status", "count"}, [][]string{
		{string(usecase.OutcomeCategorized), fmt.Sprint(counts[usecase.OutcomeCategorized])},
		{string(usecase.OutcomeSkipped), fmt.Sprint(counts[usecase.OutcomeSkipped])},
		{string(usecase.OutcomeFailed), fmt.Sprint(counts[usecase.OutcomeFailed])},
		{string(usecase.OutcomeError), fmt.Sprint(counts[usecase.OutcomeError])},
	}); err != nil {
		return err
	}

	var preview [][]string
	for _, r := range results {
		if r.Status != usecase.OutcomeCategorized {
			continue
		}
		preview = append(preview, []string{r.ExternalID, r.Category, r.Preview})
		if len(preview) == previewCount {
			break
		}
	}
	if len(preview) == 0 {
		return nil
	}
	p.Header("Preview")
	return renderTable(p.out, []string{"uuid", "category", "content"}, preview)
}

// ask prompts for a y/N answer; anything but y or yes is a no.
func ask(in *bufio.Reader, p *printer, question string) bool {
	fmt.Fprintf(p.out, "%s (y/N): ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
