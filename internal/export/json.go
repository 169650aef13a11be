package export

import (
	"encoding/json"
	"os"

	"github.com/seenimoa/oilprice/pkg/models"
)

// JSONSaver writes prices as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(prices []models.HistoricalPrice, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if prices == nil {
		prices = []models.HistoricalPrice{}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(prices)
}
