package leads

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/query"
)

// ListKey identifies the lead list.
var ListKey = query.Key{"leads"}

// DetailsKey identifies the details of one lead.
func DetailsKey(id int64) query.Key {
	return query.Key{"leadDetails", id}
}

// UseLeads subscribes to the lead list. The key does not include the filter,
// so every caller shares one list entry. Data is an empty slice until the
// first successful fetch.
func UseLeads(qc *query.Client, api crm.LeadFetcher, filter crm.Filter) *query.Query[[]crm.Lead] {
	return query.NewQuery(qc, ListKey, listFetch(api, filter), true, []crm.Lead{})
}

func listFetch(api crm.LeadFetcher, filter crm.Filter) func(context.Context) ([]crm.Lead, error) {
	return func(ctx context.Context) ([]crm.Lead, error) {
		if api == nil {
			return nil, fmt.Errorf("lead api is nil")
		}
		return api.ListLeads(ctx, filter)
	}
}

// DetailsQuery is the query for a single lead.
type DetailsQuery struct {
	*query.Query[*crm.Lead]

	api crm.LeadFetcher
	mu  sync.Mutex
	id  int64
}

// UseLeadDetails subscribes to the details of lead id. A zero id leaves the
// query disabled: no request is made until SetID supplies a real one.
func UseLeadDetails(qc *query.Client, api crm.LeadFetcher, id int64) *DetailsQuery {
	return &DetailsQuery{
		Query: query.NewQuery(qc, DetailsKey(id), detailsFetch(api, id), id != 0, (*crm.Lead)(nil)),
		api:   api,
		id:    id,
	}
}

// ID returns the lead the query is bound to.
func (d *DetailsQuery) ID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// SetID rebinds the query to lead id. Moving from zero to a real id starts
// exactly one fetch; moving back to zero disables the query.
func (d *DetailsQuery) SetID(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id = id
	d.Retarget(DetailsKey(id), detailsFetch(d.api, id), id != 0)
}

func detailsFetch(api crm.LeadFetcher, id int64) func(context.Context) (*crm.Lead, error) {
	return func(ctx context.Context) (*crm.Lead, error) {
		if api == nil {
			return nil, fmt.Errorf("lead api is nil")
		}
		return api.LeadDetails(ctx, id)
	}
}
