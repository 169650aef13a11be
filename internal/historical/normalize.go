package historical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/oilprice/pkg/models"
	"github.com/seenimoa/oilprice/pkg/utils"
)

// Fallbacks for records that omit unit or type.
const (
	DefaultUnit      = "barrel"
	DefaultPriceType = "spot_price"
)

// responseShape is the layout a response body was recognized as.
type responseShape int

const (
	shapeUnknown responseShape = iota
	shapeNestedPrices           // {"data": {"prices": [...]}}
	shapeDataArray              // {"data": [...]}
	shapeBareArray              // [...]
)

// envelope is the object form of a response.
type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

// rawRecord is one price row as sent by the API.
type rawRecord struct {
	CreatedAt     *string        `json:"created_at"`
	Code          *string        `json:"code"`
	CommodityName *string        `json:"commodity_name"`
	Price         *FlexibleFloat `json:"price"`
	Unit          *string        `json:"unit"`
	Type          *string        `json:"type"`
}

// FlexibleFloat decodes a JSON number or a numeric string. NaN and
// infinities are rejected.
type FlexibleFloat float64

func (f *FlexibleFloat) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return err
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("price %q is not finite", str)
		}
		*f = FlexibleFloat(val)
		return nil
	}

	var val float64
	if err := json.Unmarshal(data, &val); err != nil {
		return fmt.Errorf("cannot parse %s as a price", string(data))
	}
	*f = FlexibleFloat(val)
	return nil
}

// Normalizer converts any accepted response layout into a HistoricalResult.
// It never fails: unknown layouts yield no records and malformed records
// are dropped.
type Normalizer struct {
	DefaultUnit string
	DefaultType string
}

// NewNormalizer returns a Normalizer with the standard fallbacks.
func NewNormalizer() Normalizer {
	return Normalizer{DefaultUnit: DefaultUnit, DefaultType: DefaultPriceType}
}

// Normalize decodes raw. page and perPage are those of the request and
// fill pagination fields the response does not carry.
func (n Normalizer) Normalize(raw []byte, page, perPage int) *models.HistoricalResult {
	_, rows, meta := classify(raw)

	prices := make([]models.HistoricalPrice, 0, len(rows))
	for _, row := range rows {
		if p, ok := n.record(row); ok {
			prices = append(prices, p)
		}
	}

	var pm models.PaginationMeta
	if meta != nil {
		pm = metaFromResponse(meta, page, perPage, len(prices))
	} else {
		pm = models.PaginationMeta{
			Page:       page,
			PerPage:    perPage,
			Total:      len(prices),
			TotalPages: 1,
			HasNext:    perPage > 0 && len(rows) == perPage,
			HasPrev:    page > 1,
		}
	}

	return &models.HistoricalResult{Success: true, Data: prices, Meta: pm}
}

// classify recognizes the layout of raw and returns its rows and, for
// object layouts, the meta block.
func classify(raw []byte) (responseShape, []json.RawMessage, map[string]json.RawMessage) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return shapeUnknown, nil, nil
	}

	if raw[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return shapeUnknown, nil, nil
		}
		return shapeBareArray, rows, nil
	}

	var env envelope
	if raw[0] != '{' || json.Unmarshal(raw, &env) != nil {
		return shapeUnknown, nil, nil
	}

	var meta map[string]json.RawMessage
	if json.Unmarshal(env.Meta, &meta) != nil {
		meta = nil
	}

	data := bytes.TrimSpace(env.Data)
	switch {
	case len(data) > 0 && data[0] == '{':
		var nested struct {
			Prices []json.RawMessage `json:"prices"`
		}
		if json.Unmarshal(data, &nested) == nil && nested.Prices != nil {
			return shapeNestedPrices, nested.Prices, meta
		}
	case len(data) > 0 && data[0] == '[':
		var rows []json.RawMessage
		if json.Unmarshal(data, &rows) == nil {
			return shapeDataArray, rows, meta
		}
	}
	return shapeUnknown, nil, meta
}

// record maps one row, reporting false for rows that must be dropped.
func (n Normalizer) record(row json.RawMessage) (models.HistoricalPrice, bool) {
	var r rawRecord
	row = bytes.TrimSpace(row)
	if len(row) == 0 || row[0] != '{' || json.Unmarshal(row, &r) != nil {
		return models.HistoricalPrice{}, false
	}
	if r.CreatedAt == nil || r.Price == nil {
		return models.HistoricalPrice{}, false
	}
	ts, err := utils.ParseTimestamp(*r.CreatedAt)
	if err != nil {
		return models.HistoricalPrice{}, false
	}

	p := models.HistoricalPrice{
		Date:  ts,
		Value: float64(*r.Price),
		Unit:  n.DefaultUnit,
		Type:  n.DefaultType,
	}
	switch {
	case r.Code != nil:
		p.Commodity = *r.Code
	case r.CommodityName != nil:
		p.Commodity = *r.CommodityName
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.Type != nil {
		p.Type = *r.Type
	}
	return p, true
}

// metaFromResponse copies the meta block, filling absent or ill-typed
// fields with request values and safe defaults.
func metaFromResponse(meta map[string]json.RawMessage, page, perPage, count int) models.PaginationMeta {
	return models.PaginationMeta{
		Page:       intField(meta, "page", page),
		PerPage:    intField(meta, "per_page", perPage),
		Total:      intField(meta, "total", count),
		TotalPages: intField(meta, "total_pages", 1),
		HasNext:    boolField(meta, "has_next", false),
		HasPrev:    boolField(meta, "has_prev", false),
	}
}

func intField(meta map[string]json.RawMessage, key string, def int) int {
	raw, ok := meta[key]
	if !ok {
		return def
	}
	var v FlexibleFloat
	if json.Unmarshal(raw, &v) != nil {
		return def
	}
	return int(v)
}

func boolField(meta map[string]json.RawMessage, key string, def bool) bool {
	raw, ok := meta[key]
	if !ok {
		return def
	}
	var v bool
	if json.Unmarshal(raw, &v) != nil {
		return def
	}
	return v
}
