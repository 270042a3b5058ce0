package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/framecheck-labs/framecheck/pkg/dataset"
)

// Load resolves a dataset source. A source containing :// is treated as a
// SQL database URL and requires a query; anything else is a CSV path.
func Load(ctx context.Context, source, query string) (*dataset.Table, error) {
	if !strings.Contains(source, "://") {
		if query != "" {
			return nil, fmt.Errorf("query only applies to sql sources")
		}
		return LoadCSV(source)
	}
	if query == "" {
		return nil, fmt.Errorf("sql source %q needs a query", source)
	}
	db, err := OpenSQL(source)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return QueryDataset(ctx, db, query)
}
