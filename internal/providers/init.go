// Package providers initializes and registers the concrete data providers.
package providers

import (
	"github.com/ternarybob/arbor"

	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/internal/providers/oilprice"
)

// RegisterAllTo registers every provider whose credentials are configured.
// OilPriceAPI is skipped when no API key is set.
func RegisterAllTo(reg *provider.Registry, cfg *config.Config, logger arbor.ILogger) error {
	reg.SetLogger(logger)

	if cfg.API.Key != "" {
		op := oilprice.New(*cfg, logger)
		if err := op.Init(map[string]string{"api_key": cfg.API.Key}); err != nil {
			return err
		}
		if err := reg.Register(op); err != nil {
			return err
		}
	}

	return nil
}
