package core

// Metadata field names as stored in the vector index. These match the keys the
// extraction prompt exposes to the completion model, so a parsed filter can be
// checked directly against this schema.
const (
	FieldRecommendation = "Analyst Recommendation"
	FieldSummary        = "Business Summary"
	FieldCity           = "City"
	FieldCountry        = "Country"
	FieldIndustry       = "Industry"
	FieldMarketCap      = "Market Cap"
	FieldName           = "Name"
	FieldPERatio        = "PE Ratio"
	FieldPrice          = "Price"
	FieldSector         = "Sector"
	FieldState          = "State"
	FieldTicker         = "Ticker"
	FieldVolume         = "Volume"
)

// FieldKind classifies a metadata field for operator validation.
type FieldKind int

const (
	// KindText fields hold strings (including the two closed enumerations).
	KindText FieldKind = iota + 1
	// KindNumber fields hold numeric values.
	KindNumber
)

// MetadataSchema is the fixed field set of the vector index. Filters referencing
// fields outside this map are rejected before reaching the index.
var MetadataSchema = map[string]FieldKind{
	FieldRecommendation: KindText,
	FieldSummary:        KindText,
	FieldCity:           KindText,
	FieldCountry:        KindText,
	FieldIndustry:       KindText,
	FieldMarketCap:      KindNumber,
	FieldName:           KindText,
	FieldPERatio:        KindNumber,
	FieldPrice:          KindNumber,
	FieldSector:         KindText,
	FieldState:          KindText,
	FieldTicker:         KindText,
	FieldVolume:         KindNumber,
}

// Sectors enumerates the valid values for the Sector field.
var Sectors = []string{
	"Communication Services",
	"Consumer Discretionary",
	"Consumer Staples",
	"Energy",
	"Financials",
	"Healthcare",
	"Industrials",
	"Technology",
	"Materials",
	"Real Estate",
	"Utilities",
}

// Recommendations enumerates the valid values for the Analyst Recommendation field.
var Recommendations = []string{"buy", "hold", "sell"}
