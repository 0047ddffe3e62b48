package profile

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"datalens/internal/dataset"
	"datalens/internal/errors"
)

// Options tunes the full-report computation.
type Options struct {
	// MaxMatrixRows caps the missing-value presence matrix.
	MaxMatrixRows int
	// SkipCorrelations leaves the correlation matrix out of the report.
	SkipCorrelations bool
}

// BuildReport computes the complete profile of a dataset. The independent
// sections run concurrently; a dataset without numeric columns still gets a
// report, just with empty numeric sections.
func BuildReport(ctx context.Context, ds *dataset.Dataset, opts Options) (*Report, error) {
	start := time.Now()

	report := &Report{
		DatasetID: ds.ID,
		Rows:      ds.Rows(),
		Cols:      ds.Cols(),
		Columns:   ds.Columns(),
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		numeric, err := Describe(ds)
		if err != nil {
			if errors.Is(err, errors.ErrNoNumericColumns) {
				report.Numeric = []NumericSummary{}
				return nil
			}
			return err
		}
		report.Numeric = numeric
		return nil
	})

	g.Go(func() error {
		report.Missing = MissingValues(ds, opts.MaxMatrixRows)
		return nil
	})

	if !opts.SkipCorrelations {
		g.Go(func() error {
			corr, err := Correlations(ds)
			if err != nil {
				if errors.Is(err, errors.ErrNoNumericColumns) {
					return nil
				}
				return err
			}
			report.Corr = corr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Computed = time.Now().UTC()
	report.ComputeDur = time.Since(start)
	return report, nil
}
