package historical

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/seenimoa/oilprice/pkg/utils"
)

// Query defaults and limits.
const (
	DefaultInterval = "daily"
	DefaultPerPage  = 100
	MaxPerPage      = 1000
)

// Intervals accepted by the API.
var Intervals = []string{"minute", "hourly", "daily", "weekly", "monthly"}

var validate = validator.New()

// Query describes one historical-price request.
type Query struct {
	Commodity string        `validate:"required"`
	Range     DateRange     `validate:"-"`
	Interval  string        `validate:"omitempty,oneof=minute hourly daily weekly monthly"`
	Type      string        // price type filter, "spot_price" when empty
	Page      int           `validate:"gte=0"`
	PerPage   int           `validate:"gte=0"` // capped at MaxPerPage on the wire
	Timeout   time.Duration `validate:"gte=0"` // overrides the range-based timeout when positive
}

// Validate checks q after defaults are applied.
func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		return &QueryError{Err: err}
	}
	return nil
}

// withDefaults fills unset fields.
func (q Query) withDefaults() Query {
	q.Commodity = strings.TrimSpace(q.Commodity)
	if q.Interval == "" {
		q.Interval = DefaultInterval
	}
	if q.Type == "" {
		q.Type = DefaultPriceType
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// pageSize is the page size sent to the API.
func (q Query) pageSize() int {
	return min(q.PerPage, MaxPerPage)
}

// Params builds the query string of q.
func (q Query) Params() url.Values {
	v := url.Values{}
	v.Set("by_code", q.Commodity)
	v.Set("interval", q.Interval)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.pageSize()))
	v.Set("by_type", q.Type)
	if !q.Range.Start.IsZero() {
		v.Set("start_date", utils.FormatDate(q.Range.Start))
	}
	if !q.Range.End.IsZero() {
		v.Set("end_date", utils.FormatDate(q.Range.End))
	}
	return v
}

// ParseRange parses optional start and end bounds. Empty strings leave
// the bound absent.
func ParseRange(start, end string) (DateRange, error) {
	var r DateRange
	if strings.TrimSpace(start) != "" {
		t, err := utils.ParseDate(start)
		if err != nil {
			return DateRange{}, &InvalidDateError{Field: "start", Value: start}
		}
		r.Start = t
	}
	if strings.TrimSpace(end) != "" {
		t, err := utils.ParseDate(end)
		if err != nil {
			return DateRange{}, &InvalidDateError{Field: "end", Value: end}
		}
		r.End = t
	}
	return r, nil
}
