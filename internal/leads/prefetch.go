package leads

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/query"
)

// Prefetch warms the details entries for ids, running at most limit fetches
// at once (limit <= 0 means no bound). Entries that are already fresh are not
// fetched again. It returns the first failure and stops the remaining work.
func Prefetch(ctx context.Context, qc *query.Client, api crm.LeadFetcher, ids []int64, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error { return warm(ctx, qc, api, id) })
	}
	return g.Wait()
}

func warm(ctx context.Context, qc *query.Client, api crm.LeadFetcher, id int64) error {
	sub := qc.Ensure(DetailsKey(id), query.Erase(detailsFetch(api, id)), true)
	defer sub.Close()
	for {
		select {
		case st, ok := <-sub.Changes():
			if !ok {
				return nil
			}
			switch st.Status {
			case query.StatusSuccess:
				return nil
			case query.StatusError:
				return fmt.Errorf("prefetch lead %d: %w", id, st.Err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
