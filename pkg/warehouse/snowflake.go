package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sf "github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig carries the connection parameters for the warehouse.
type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
}

// SnowflakeConfigFromEnv reads the standard SNOWFLAKE_* variables.
func SnowflakeConfigFromEnv() SnowflakeConfig {
	return SnowflakeConfig{
		Account:   os.Getenv("SNOWFLAKE_ACCOUNT"),
		User:      os.Getenv("SNOWFLAKE_USER"),
		Password:  os.Getenv("SNOWFLAKE_PASSWORD"),
		Database:  os.Getenv("SNOWFLAKE_DATABASE"),
		Schema:    os.Getenv("SNOWFLAKE_SCHEMA"),
		Warehouse: os.Getenv("SNOWFLAKE_WAREHOUSE"),
		Role:      os.Getenv("SNOWFLAKE_ROLE"),
	}
}

// Snowflake implements Connector against a Snowflake warehouse through
// database/sql. The pool manages connection lifecycle per query.
type Snowflake struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSnowflake opens a connection pool to the warehouse. The pool is
// lazy; the first query establishes the session.
func NewSnowflake(config SnowflakeConfig, logger *slog.Logger) (*Snowflake, error) {
	if config.Account == "" || config.User == "" {
		return nil, fmt.Errorf("snowflake account and user are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := sf.DSN(&sf.Config{
		Account:   config.Account,
		User:      config.User,
		Password:  config.Password,
		Database:  config.Database,
		Schema:    config.Schema,
		Warehouse: config.Warehouse,
		Role:      config.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("building snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening snowflake connection: %w", err)
	}

	return &Snowflake{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Snowflake) Close() error {
	return s.db.Close()
}

const propertyBoundariesQuery = `
SELECT PARCEL_ID, ADDRESS, CITY, STATE_CODE, ZIP_CODE, ACRES, OWNER_NAME,
       TOTAL_VALUE, LAND_VALUE, IMPROVEMENT_VALUE, USECODE, USEDESC,
       ZONING, ZONING_DESCRIPTION, COUNTY_ID, LATITUDE, LONGITUDE
FROM PARCEL_PROFILE
WHERE PARCEL_ID = ?`

// GetPropertyBoundaries returns the parcel profile record for a property.
func (s *Snowflake) GetPropertyBoundaries(ctx context.Context, propertyID string) (Row, error) {
	return s.queryOne(ctx, propertyBoundariesQuery, propertyID)
}

const soilDataQuery = `
SELECT sp.PARCEL_ID, sp.MUKEY, sp.MAP_UNIT_SYMBOL, sp.COMPONENT_KEY,
       sp.COMPONENT_PERCENTAGE, sp.SOIL_SERIES, sp.SOIL_TYPE,
       sp.FERTILITY_CLASS, sp.ORGANIC_MATTER_PCT, sp.PH_LEVEL,
       sp.CATION_EXCHANGE_CAPACITY, sp.DRAINAGE_CLASS, sp.HYDROLOGIC_GROUP,
       sp.SLOPE_PERCENT, sp.AVAILABLE_WATER_CAPACITY,
       sp.NITROGEN_PPM, sp.PHOSPHORUS_PPM, sp.POTASSIUM_PPM,
       sp.TAXONOMIC_CLASS, sp.AGRICULTURAL_CAPABILITY,
       pp.ADDRESS, pp.CITY, pp.STATE_CODE, pp.ACRES, pp.COUNTY_ID
FROM SOIL_PROFILE sp
JOIN PARCEL_PROFILE pp ON sp.PARCEL_ID = pp.PARCEL_ID
WHERE sp.PARCEL_ID = ?
ORDER BY sp.COMPONENT_PERCENTAGE DESC`

// GetSoilData returns the soil component records for a property.
func (s *Snowflake) GetSoilData(ctx context.Context, propertyID string) ([]Row, error) {
	return s.queryAll(ctx, soilDataQuery, propertyID)
}

// SearchPropertiesByCriteria returns parcel records matching the filters.
func (s *Snowflake) SearchPropertiesByCriteria(ctx context.Context, filters SearchFilters, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 100
	}

	var clauses []string
	var params []any

	if filters.MinAcreage != nil {
		clauses = append(clauses, "ACRES >= ?")
		params = append(params, *filters.MinAcreage)
	}
	if filters.MaxAcreage != nil {
		clauses = append(clauses, "ACRES <= ?")
		params = append(params, *filters.MaxAcreage)
	}
	if filters.County != "" {
		clauses = append(clauses, "LOWER(COUNTY_ID) = LOWER(?)")
		params = append(params, filters.County)
	}
	if filters.State != "" {
		clauses = append(clauses, "LOWER(STATE_CODE) = LOWER(?)")
		params = append(params, filters.State)
	}

	where := "1=1"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
SELECT PARCEL_ID, ADDRESS, CITY, STATE_CODE, COUNTY_ID, ZIP_CODE, ACRES,
       OWNER_NAME, TOTAL_VALUE, USECODE, USEDESC, LATITUDE, LONGITUDE
FROM PARCEL_PROFILE
WHERE %s
  AND ACRES IS NOT NULL
  AND LATITUDE IS NOT NULL
  AND LONGITUDE IS NOT NULL
LIMIT ?`, where)
	params = append(params, limit)

	return s.queryAll(ctx, query, params...)
}

const cropHistoryQuery = `
SELECT HISTORY_ID, PARCEL_ID, CROP_YEAR, CROP_TYPE, ROTATION_SEQUENCE,
       COUNTY_ID, STATE_CODE
FROM CROP_HISTORY
WHERE PARCEL_ID = ?
  AND CROP_YEAR >= YEAR(CURRENT_DATE) - ?
ORDER BY CROP_YEAR DESC, ROTATION_SEQUENCE ASC`

// GetCropHistory returns crop-year records for the last N years.
func (s *Snowflake) GetCropHistory(ctx context.Context, propertyID string, years int) ([]Row, error) {
	if years <= 0 {
		years = 5
	}
	return s.queryAll(ctx, cropHistoryQuery, propertyID, years)
}

const comprehensiveAnalysisQuery = `
SELECT PARCEL_ID, PARCEL_ACRES, COUNTY_ID, STATE_CODE, ADDRESS, OWNER_NAME,
       USECODE, USEDESC, ZONING, ZONING_DESCRIPTION, TOTAL_VALUE, LAND_VALUE,
       IMPROVEMENT_VALUE, TAXAMT, SALEPRICE, SALEDATE, LAND_COVER_SUMMARY,
       DOMINANT_COVER_TYPE, DOMINANT_COVER_PERCENTAGE,
       AGRICULTURAL_PERCENTAGE, FOREST_PERCENTAGE, DEVELOPED_PERCENTAGE,
       CROP_SUMMARY, DOMINANT_CROP, AGRICULTURAL_CLASSIFICATION,
       SECTION_180_POTENTIAL, VALUATION_FLAG, INVESTMENT_OPPORTUNITY_FLAG
FROM COMPREHENSIVE_PARCEL_CDL_ANALYSIS
WHERE PARCEL_ID = ?`

// GetComprehensiveAnalysis returns the land-cover and valuation analysis
// record for a property.
func (s *Snowflake) GetComprehensiveAnalysis(ctx context.Context, propertyID string) (Row, error) {
	return s.queryOne(ctx, comprehensiveAnalysisQuery, propertyID)
}

const section180Query = `
SELECT ESTIMATE_ID, PARCEL_ID, ESTIMATE_DATE, TOTAL_DEDUCTION,
       NITROGEN_VALUE, PHOSPHORUS_VALUE, POTASSIUM_VALUE,
       CONFIDENCE_SCORE, METHODOLOGY, NOTES
FROM SECTION_180_ESTIMATES
WHERE PARCEL_ID = ?
ORDER BY ESTIMATE_DATE DESC
LIMIT 1`

// GetSection180Estimates returns the most recent Section 180 estimate.
func (s *Snowflake) GetSection180Estimates(ctx context.Context, propertyID string) (Row, error) {
	return s.queryOne(ctx, section180Query, propertyID)
}

// queryOne returns the first row of a query, or nil when there is none.
func (s *Snowflake) queryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.queryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// queryAll runs a query and decodes every row into a column-keyed map.
func (s *Snowflake) queryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("warehouse query failed", "error", err)
		return nil, fmt.Errorf("warehouse query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, nil
}

// normalizeValue converts driver byte slices to strings so rows stay
// JSON-friendly. Arbitrary-precision numerics pass through untouched and
// are handled by the tool-result serializer.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
