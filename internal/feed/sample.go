package feed

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

const sampleInterval = 24 * time.Hour

// generateSampleSeries produces a deterministic walk of plausible indicator
// values for pair over [start, end], seeded from the pair name so repeated
// calls for the same pair and range always return the same series.
func generateSampleSeries(pair string, start, end time.Time) []Record {
	rng := rand.New(rand.NewSource(seedFor(pair)))

	country := countryLegFor(pair)
	twoYear := 1.5
	tenYear := 2.5
	cpi := 2.0
	vix := 18.0

	var records []Record
	for current := start; current.Before(end) || current.Equal(end); current = current.Add(sampleInterval) {
		twoYear += (rng.Float64() - 0.5) * 0.05
		tenYear += (rng.Float64() - 0.5) * 0.05
		cpi += (rng.Float64() - 0.5) * 0.02
		vix += (rng.Float64() - 0.5) * 1.5
		if vix < 9 {
			vix = 9
		}

		records = append(records, Record{
			Timestamp: current,
			Values: map[string]decimal.Decimal{
				"US-" + country + "_2Y":      decimal.NewFromFloat(twoYear),
				"US-" + country + "_10Y":     decimal.NewFromFloat(tenYear),
				"US-" + country + "_CPI_YOY": decimal.NewFromFloat(cpi),
				"VIX":                        decimal.NewFromFloat(vix),
			},
		})
	}

	return records
}

func seedFor(pair string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pair))
	return int64(h.Sum64())
}

// countryLegFor mirrors macro.Descriptor's pair -> country_code mapping for
// the handful of pairs the sample generator knows about, falling back to the
// pair's first two characters for anything else.
func countryLegFor(pair string) string {
	switch pair {
	case "USDJPY":
		return "JP"
	case "USDCAD":
		return "CA"
	case "AUDUSD":
		return "AU"
	case "EURUSD":
		return "EU"
	case "GBPUSD":
		return "GB"
	default:
		if len(pair) >= 2 {
			return pair[:2]
		}
		return "JP"
	}
}
