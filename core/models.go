package core

import "math"

// NotAvailable is the sentinel stored in index metadata when the market-data
// provider had no value for a field. It mirrors the provider payloads, which
// mix strings and numbers in the same field positions.
const NotAvailable = "Information not available"

// TickerRecord identifies a single symbol from the listing universe.
type TickerRecord struct {
	Symbol string
}

// StockFacts holds the per-symbol attributes fetched from the market-data
// provider for one ingestion attempt. Instances are never mutated after
// creation; the attempt that built them is their sole owner.
//
// Missing text fields carry the empty string, missing numeric fields carry
// NaN. Both render as NotAvailable in index metadata.
type StockFacts struct {
	Ticker          string
	Name            string
	BusinessSummary string
	City            string
	State           string
	Country         string
	Industry        string
	Sector          string
	Recommendation  string

	MarketCap float64
	Volume    float64
	PERatio   float64
	Price     float64
}

// NoValue is the in-memory marker for an absent numeric fact.
func NoValue() float64 { return math.NaN() }

// Metadata renders the facts as the metadata map stored alongside the vector
// in the index. Every schema field is present; absent values become the
// NotAvailable sentinel rather than being dropped.
func (f StockFacts) Metadata() map[string]any {
	meta := make(map[string]any, len(MetadataSchema))
	meta[FieldTicker] = textOrSentinel(f.Ticker)
	meta[FieldName] = textOrSentinel(f.Name)
	meta[FieldSummary] = textOrSentinel(f.BusinessSummary)
	meta[FieldCity] = textOrSentinel(f.City)
	meta[FieldState] = textOrSentinel(f.State)
	meta[FieldCountry] = textOrSentinel(f.Country)
	meta[FieldIndustry] = textOrSentinel(f.Industry)
	meta[FieldSector] = textOrSentinel(f.Sector)
	meta[FieldRecommendation] = textOrSentinel(f.Recommendation)
	meta[FieldMarketCap] = numberOrSentinel(f.MarketCap)
	meta[FieldVolume] = numberOrSentinel(f.Volume)
	meta[FieldPERatio] = numberOrSentinel(f.PERatio)
	meta[FieldPrice] = numberOrSentinel(f.Price)
	return meta
}

// FactsFromMetadata rebuilds StockFacts from an index metadata map. It is the
// inverse of Metadata: sentinel values become the empty string or NaN again.
// Unknown keys are ignored.
func FactsFromMetadata(meta map[string]any) StockFacts {
	return StockFacts{
		Ticker:          textField(meta, FieldTicker),
		Name:            textField(meta, FieldName),
		BusinessSummary: textField(meta, FieldSummary),
		City:            textField(meta, FieldCity),
		State:           textField(meta, FieldState),
		Country:         textField(meta, FieldCountry),
		Industry:        textField(meta, FieldIndustry),
		Sector:          textField(meta, FieldSector),
		Recommendation:  textField(meta, FieldRecommendation),
		MarketCap:       numberField(meta, FieldMarketCap),
		Volume:          numberField(meta, FieldVolume),
		PERatio:         numberField(meta, FieldPERatio),
		Price:           numberField(meta, FieldPrice),
	}
}

func textOrSentinel(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func numberOrSentinel(v float64) any {
	if math.IsNaN(v) {
		return NotAvailable
	}
	return v
}

func textField(meta map[string]any, field string) string {
	s, ok := meta[field].(string)
	if !ok || s == NotAvailable {
		return ""
	}
	return s
}

func numberField(meta map[string]any, field string) float64 {
	switch v := meta[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return math.NaN()
	}
}
