// Package warehouse provides read access to the analytical warehouse
// holding parcel, soil and valuation data. Tool handlers depend on the
// Connector interface; the Snowflake implementation is the production
// backend.
package warehouse

import "context"

// Row is a single result row keyed by column name. Numeric columns may
// decode as float64, *big.Float or *big.Rat depending on the driver.
type Row = map[string]any

// SearchFilters narrows a property search. Zero values mean "no filter".
type SearchFilters struct {
	MinAcreage *float64
	MaxAcreage *float64
	County     string
	State      string
}

// Connector is the query surface the land-analysis tools need. Not-found
// lookups return (nil, nil) rather than an error; list lookups return an
// empty slice.
type Connector interface {
	// GetPropertyBoundaries returns the parcel profile record for a
	// property, or nil when the parcel is unknown.
	GetPropertyBoundaries(ctx context.Context, propertyID string) (Row, error)

	// GetSoilData returns the soil component records for a property,
	// ordered by component percentage descending.
	GetSoilData(ctx context.Context, propertyID string) ([]Row, error)

	// SearchPropertiesByCriteria returns up to limit parcel records
	// matching the filters.
	SearchPropertiesByCriteria(ctx context.Context, filters SearchFilters, limit int) ([]Row, error)

	// GetCropHistory returns crop-year records for the last N years,
	// newest first.
	GetCropHistory(ctx context.Context, propertyID string, years int) ([]Row, error)

	// GetComprehensiveAnalysis returns the land-cover and valuation
	// analysis record for a property, or nil when absent.
	GetComprehensiveAnalysis(ctx context.Context, propertyID string) (Row, error)

	// GetSection180Estimates returns the most recent Section 180 tax
	// deduction estimate for a property, or nil when absent.
	GetSection180Estimates(ctx context.Context, propertyID string) (Row, error)

	// Close releases the underlying connection pool.
	Close() error
}
