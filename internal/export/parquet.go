package export

import (
	"github.com/parquet-go/parquet-go"

	"github.com/seenimoa/oilprice/pkg/models"
)

// ParquetSaver writes prices as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(prices []models.HistoricalPrice, path string) error {
	return parquet.WriteFile(path, prices)
}
