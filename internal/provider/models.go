package provider

// ModelType names a data model a Fetcher can produce.
type ModelType string

// Commodity price models.
const (
	// ModelCommodityHistorical is one page of historical prices.
	ModelCommodityHistorical ModelType = "CommodityHistorical"
	// ModelCommodityHistoricalAll is every page of a historical query.
	ModelCommodityHistoricalAll ModelType = "CommodityHistoricalAll"
)

// AllModels returns every known model type.
func AllModels() []ModelType {
	return []ModelType{
		ModelCommodityHistorical,
		ModelCommodityHistoricalAll,
	}
}

// ModelCategory returns the category of m, or "unknown".
func ModelCategory(m ModelType) string {
	switch m {
	case ModelCommodityHistorical, ModelCommodityHistoricalAll:
		return "commodity"
	default:
		return "unknown"
	}
}
