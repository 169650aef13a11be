package models

import "time"

// HistoricalPrice is one observed commodity price point.
type HistoricalPrice struct {
	Date      time.Time `json:"date"      parquet:"date,timestamp"`
	Commodity string    `json:"commodity" parquet:"commodity"` // e.g., "WTI_USD", "BRENT_CRUDE_USD"
	Value     float64   `json:"value"     parquet:"value"`
	Unit      string    `json:"unit"      parquet:"unit"` // e.g., "barrel", "mmbtu"
	Type      string    `json:"type"      parquet:"type"` // e.g., "spot_price"
}

// PaginationMeta describes one page's position within a multi-page result.
type PaginationMeta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"` // authoritative only when reported by the API
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// HistoricalResult is a single page of historical prices.
type HistoricalResult struct {
	Success bool              `json:"success"`
	Data    []HistoricalPrice `json:"data"`
	Meta    PaginationMeta    `json:"meta"`
}

// Len returns the number of records on the page.
func (r *HistoricalResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Data)
}
