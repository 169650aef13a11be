package export

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/seenimoa/oilprice/pkg/models"
)

// CSVSaver writes prices as CSV with header date,commodity,value,unit,type.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(prices []models.HistoricalPrice, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write([]string{"date", "commodity", "value", "unit", "type"}); err != nil {
		return err
	}
	for _, p := range prices {
		if err := w.Write([]string{
			p.Date.UTC().Format(time.RFC3339),
			p.Commodity,
			strconv.FormatFloat(p.Value, 'f', -1, 64),
			p.Unit,
			p.Type,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
