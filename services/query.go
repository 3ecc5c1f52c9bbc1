package services

import (
	"context"

	"github.com/km-arc/iothub-manager/services/runtime"
	"github.com/km-arc/iothub-manager/services/storage"
)

// DeviceQuery is a single-use device listing. Callers that walk several
// pages resolve a fresh query per page.
type DeviceQuery interface {
	Limit(n int) DeviceQuery
	After(continuationToken string) DeviceQuery
	Run(ctx context.Context) (DeviceList, error)
}

// Query is the per-scope DeviceQuery.
type Query struct {
	store   storage.Store
	limit   int
	ceiling int
	after   string
	used    bool
}

func NewQuery(store storage.Store, config runtime.ServicesConfig) *Query {
	return &Query{store: store, ceiling: config.DeviceQueryLimit()}
}

func (q *Query) Limit(n int) DeviceQuery {
	q.limit = n
	return q
}

func (q *Query) After(continuationToken string) DeviceQuery {
	q.after = continuationToken
	return q
}

func (q *Query) Run(ctx context.Context) (DeviceList, error) {
	if q.used {
		return DeviceList{}, ErrQueryUsed
	}
	q.used = true
	return listDevices(ctx, q.store, q.after, clampLimit(q.limit, q.ceiling))
}
