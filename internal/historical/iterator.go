package historical

import (
	"context"
	"iter"

	"github.com/seenimoa/oilprice/pkg/models"
)

// PageIterator walks the pages of a query lazily, one request per Next.
// It is single-pass and not safe for concurrent use.
//
//	it := svc.IterPages(ctx, q)
//	for it.Next() {
//		process(it.Page())
//	}
//	if err := it.Err(); err != nil { ... }
type PageIterator struct {
	svc     *Service
	ctx     context.Context
	query   Query
	page    int
	fetched int
	current []models.HistoricalPrice
	err     error
	done    bool
}

// IterPages returns an iterator over the pages of q, starting at page 1.
// Nothing is fetched until the first call to Next.
func (s *Service) IterPages(ctx context.Context, q Query) *PageIterator {
	q = q.withDefaults()
	it := &PageIterator{svc: s, ctx: ctx, query: q, page: 1}
	if err := q.Validate(); err != nil {
		it.err = err
		it.done = true
	}
	return it
}

// Next fetches pages until one holds records and reports whether it found
// one. The walk ends when the API reports no further page, an error occurs
// or the page cap is reached with pages still pending. A page whose rows
// were all dropped is skipped while the API reports more pages.
func (it *PageIterator) Next() bool {
	it.current = nil
	for !it.done {
		result, ok := it.fetchNext()
		if !ok {
			return false
		}
		if !result.Meta.HasNext {
			it.done = true
		}
		if result.Len() > 0 {
			it.current = result.Data
			return true
		}
	}
	return false
}

// fetchNext requests the next page, enforcing the cap and cancellation.
func (it *PageIterator) fetchNext() (*models.HistoricalResult, bool) {
	if it.fetched >= it.svc.maxPages {
		it.fail(&PaginationError{Commodity: it.query.Commodity, MaxPages: it.svc.maxPages})
		if it.svc.logger != nil {
			it.svc.logger.Warn().
				Str("commodity", it.query.Commodity).
				Int("max_pages", it.svc.maxPages).
				Msg("Pagination cap reached")
		}
		return nil, false
	}
	if err := it.ctx.Err(); err != nil {
		it.fail(err)
		return nil, false
	}

	q := it.query
	q.Page = it.page
	result, err := it.svc.fetchPage(it.ctx, q)
	it.fetched++
	if err != nil {
		it.fail(err)
		return nil, false
	}
	it.page++
	return result, true
}

// Page returns the records of the page fetched by the last Next.
func (it *PageIterator) Page() []models.HistoricalPrice {
	return it.current
}

// Err returns the error that stopped the walk, if any.
func (it *PageIterator) Err() error {
	return it.err
}

// Fetched returns the number of requests issued so far.
func (it *PageIterator) Fetched() int {
	return it.fetched
}

// All adapts the iterator to a range-over-func sequence. A terminal error
// is yielded once with a nil page.
func (it *PageIterator) All() iter.Seq2[[]models.HistoricalPrice, error] {
	return func(yield func([]models.HistoricalPrice, error) bool) {
		for it.Next() {
			if !yield(it.Page(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (it *PageIterator) fail(err error) {
	it.err = err
	it.done = true
}
