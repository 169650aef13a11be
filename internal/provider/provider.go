// Package provider routes commodity data requests to registered data
// providers. A Provider exposes one Fetcher per model type; the Registry
// picks the provider for a request and validates its parameters.
package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProviderCredential describes a credential a provider needs.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "OilPriceAPI token from oilpriceapi.com"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // e.g., "OILPRICEAPI_KEY"
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"`
}

// Provider is implemented by every data source.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init stores credentials. It fails when a required one is missing.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for model, or nil if unsupported.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies connectivity and credentials.
	Ping(ctx context.Context) error
}

// QueryParams is the string-keyed parameter map passed to fetchers.
//   - "commodity"  : commodity code (e.g., "WTI_USD", "BRENT_CRUDE_USD")
//   - "start_date" : start date (YYYY-MM-DD or RFC3339)
//   - "end_date"   : end date
//   - "interval"   : "minute", "hourly", "daily", "weekly" or "monthly"
//   - "type"       : price type (e.g., "spot_price")
//   - "page"       : page number, single-page fetches only
//   - "per_page"   : page size
//   - "timeout"    : request timeout override (Go duration, e.g. "90s")
//   - "provider"   : override provider name
type QueryParams map[string]string

// Query parameter keys.
const (
	ParamCommodity = "commodity"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamInterval  = "interval"
	ParamType      = "type"
	ParamPage      = "page"
	ParamPerPage   = "per_page"
	ParamTimeout   = "timeout"
	ParamProvider  = "provider"
)

// Int returns the integer value of key, or 0 when absent.
func (p QueryParams) Int(key string) (int, error) {
	v := strings.TrimSpace(p[key])
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ErrInvalidParam{Param: key, Value: v}
	}
	return n, nil
}

// Duration returns the duration value of key, or 0 when absent. Plain
// integers are read as seconds.
func (p QueryParams) Duration(key string) (time.Duration, error) {
	v := strings.TrimSpace(p[key])
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ErrInvalidParam{Param: key, Value: v}
	}
	return d, nil
}

// FetchResult wraps fetched data with its origin.
type FetchResult struct {
	Provider  string    `json:"provider"`
	Model     ModelType `json:"model"`
	Data      any       `json:"data"` // typed per model, see ModelType
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

// Fetcher retrieves one model type.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string
	OptionalParams() []string

	// Fetch retrieves data for params. The data type depends on the model:
	//   - CommodityHistorical    → *models.HistoricalResult
	//   - CommodityHistoricalAll → []models.HistoricalPrice
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	if e.Name == "" {
		return "no provider registered"
	}
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidParam is returned when a parameter value cannot be parsed.
type ErrInvalidParam struct {
	Param string
	Value string
}

func (e *ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q", e.Value, e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ValidateParams checks that all required parameters are present.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if strings.TrimSpace(params[key]) == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
