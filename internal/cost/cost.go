// Package cost implements the cost calculator (spec.md §4.6): combining
// token counts and a pricing catalogue entry into a USD cost breakdown,
// with deterministic pico-USD integer serialization.
package cost

import (
	"fmt"
	"math"
	"math/big"

	"github.com/llm-cost/llm-cost/internal/catalog"
)

// PicoScale is the integer scale factor for pico-USD (10^-12 USD).
const PicoScale = 1_000_000_000_000

// RateKind enumerates the billable rate categories (spec.md §4.6).
type RateKind int

const (
	Input RateKind = iota
	Output
	CacheRead
	CacheWrite
)

func (k RateKind) String() string {
	switch k {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case CacheRead:
		return "CacheRead"
	case CacheWrite:
		return "CacheWrite"
	default:
		return "Unknown"
	}
}

// Options configures cache-aware cost scenarios.
type Options struct {
	// CacheHitRatio in [0,1]; the fraction of input tokens served from
	// cache at the cache-read rate.
	CacheHitRatio float64
	// IncludeCacheWrite additionally charges the full input token count
	// at the cache-write rate (first-request amortisation).
	IncludeCacheWrite bool
}

// Component is one line of the cost breakdown.
type Component struct {
	Kind     RateKind
	Tokens   int64
	RateUSD  float64
	USD      float64
	PicoUSD  int64
}

// Result is the full cost breakdown for one prompt.
type Result struct {
	Components []Component
	TotalUSD   float64
	TotalPico  int64
}

// Calculate computes the cost breakdown for inputTokens/outputTokens
// against pd, per spec.md §4.6. CacheRead falls back to the input rate
// when pd has no cache-read rate; CacheWrite falls back to zero.
func Calculate(pd catalog.PriceDef, inputTokens, outputTokens int64, opts Options) Result {
	cacheReadRate := pd.InputRate
	if pd.CacheReadRate.Present {
		cacheReadRate = pd.CacheReadRate.Value
	}
	cacheWriteRate := 0.0
	if pd.CacheWriteRate.Present {
		cacheWriteRate = pd.CacheWriteRate.Value
	}

	ratio := opts.CacheHitRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	cached := int64(math.Floor(float64(inputTokens) * ratio))
	uncached := inputTokens - cached

	var components []Component
	addComponent := func(kind RateKind, tokens int64, rate float64) {
		usd := costForTokens(tokens, rate)
		components = append(components, Component{
			Kind:    kind,
			Tokens:  tokens,
			RateUSD: rate,
			USD:     usd,
			PicoUSD: ToPicoUSD(usd),
		})
	}

	if cached > 0 {
		addComponent(CacheRead, cached, cacheReadRate)
	}
	addComponent(Input, uncached, pd.InputRate)
	addComponent(Output, outputTokens, pd.OutputRate)
	if opts.IncludeCacheWrite {
		addComponent(CacheWrite, inputTokens, cacheWriteRate)
	}

	var totalUSD float64
	var totalPico int64
	for _, c := range components {
		totalUSD += c.USD
		totalPico += c.PicoUSD
	}

	return Result{Components: components, TotalUSD: totalUSD, TotalPico: totalPico}
}

// costForTokens multiplies before dividing, per spec.md §4.6.
func costForTokens(tokens int64, ratePerMillion float64) float64 {
	return float64(tokens) * ratePerMillion / 1_000_000
}

// ToPicoUSD converts a USD amount to an integer pico-USD value using
// banker's rounding (round-half-to-even), the determinism contract of
// spec.md §4.6. The multiplication runs at 200 bits of precision (far
// more than the 106 bits needed to hold the exact product of two
// float64 operands) so the only rounding that happens is the explicit
// half-to-even step below; no decimal/money library in the retrieved
// corpus offers round-half-even more directly than big.Float does.
func ToPicoUSD(usd float64) int64 {
	scaled := new(big.Float).SetPrec(200).Mul(big.NewFloat(usd), big.NewFloat(PicoScale))

	floorInt, _ := scaled.Int(nil) // truncates toward zero; usd is always >= 0
	floorBF := new(big.Float).SetPrec(200).SetInt(floorInt)
	remainder := new(big.Float).SetPrec(200).Sub(scaled, floorBF)

	half := big.NewFloat(0.5)
	switch remainder.Cmp(half) {
	case -1:
		// remainder < 0.5: round down.
	case 1:
		// remainder > 0.5: round up.
		floorInt.Add(floorInt, big.NewInt(1))
	default:
		// remainder == 0.5: round to even.
		if floorInt.Bit(0) == 1 {
			floorInt.Add(floorInt, big.NewInt(1))
		}
	}
	return floorInt.Int64()
}

// FromPicoUSD converts an integer pico-USD value back to a display-time
// float64 USD amount. This conversion must only happen at display
// boundaries (spec.md §3).
func FromPicoUSD(pico int64) float64 {
	return float64(pico) / PicoScale
}

// FormatPicoUSD renders a pico-USD integer as a fixed 12-decimal-place
// USD string using only integer division, so the emitted bytes are
// sourced from the pico-USD integer of record rather than round-tripped
// through a float64 (spec.md §4.6's determinism contract).
func FormatPicoUSD(pico int64) string {
	sign := ""
	if pico < 0 {
		sign = "-"
		pico = -pico
	}
	whole := pico / PicoScale
	frac := pico % PicoScale
	return fmt.Sprintf("%s%d.%012d", sign, whole, frac)
}
