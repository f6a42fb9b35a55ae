// Package macro maps macro-observation records to bounded axis forces and
// tracks the instrument catalog and rolling VIX correlations that feed that
// mapping.
package macro

import "github.com/atlas-desktop/macrosignal/pkg/types"

// catalog is the fixed instrument catalog. Unknown pairs fall back to
// code=JP, inverted=false (see Descriptor).
var catalog = map[string]types.InstrumentDescriptor{
	"USDJPY": {PairName: "USDJPY", CountryCode: "JP", Inverted: false},
	"USDCAD": {PairName: "USDCAD", CountryCode: "CA", Inverted: false},
	"AUDUSD": {PairName: "AUDUSD", CountryCode: "AU", Inverted: true},
	"EURUSD": {PairName: "EURUSD", CountryCode: "EU", Inverted: true},
	"GBPUSD": {PairName: "GBPUSD", CountryCode: "GB", Inverted: true},
}

// Descriptor resolves a pair name to its Instrument Descriptor. Unknown
// pairs fall back silently to code=JP, inverted=false rather than failing;
// the catalog never reports an unknown-pair error.
func Descriptor(pairName string) types.InstrumentDescriptor {
	if d, ok := catalog[pairName]; ok {
		return d
	}
	return types.InstrumentDescriptor{PairName: pairName, CountryCode: "JP", Inverted: false}
}
