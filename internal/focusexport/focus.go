// Package focusexport maps a priced prompt into a FOCUS (FinOps Open
// Cost & Usage Specification) row (spec.md §4.9). CSV framing and
// writing is left to the CLI wrapper; this package only produces the
// column values, including the canonical-JSON Tags encoding that makes
// batch output byte-stable across runs.
package focusexport

import (
	"sort"
	"strconv"

	"github.com/tidwall/sjson"

	"github.com/llm-cost/llm-cost/internal/catalog"
	"github.com/llm-cost/llm-cost/internal/cost"
)

// Columns lists the FOCUS column names in the fixed order spec.md §4.9
// requires for the CSV header.
var Columns = []string{
	"BilledCost",
	"EffectiveCost",
	"ListCost",
	"UsageQuantity",
	"UsageUnit",
	"ResourceId",
	"ResourceName",
	"ServiceName",
	"ServiceCategory",
	"Provider",
	"ChargeCategory",
	"Tags",
	"x-InputTokens",
	"x-OutputTokens",
	"x-CacheHitRatio",
	"x-ContentHash",
}

const (
	serviceName     = "LLM Inference"
	serviceCategory = "AI and Machine Learning"
	chargeCategory  = "Usage"
	usageUnit       = "Tokens"
)

// Row is one FOCUS export line.
type Row struct {
	BilledCost      string
	EffectiveCost   string
	ListCost        string
	UsageQuantity   int64
	UsageUnit       string
	ResourceId      string
	ResourceName    string
	ServiceName     string
	ServiceCategory string
	Provider        string
	ChargeCategory  string
	Tags            string
	InputTokens     int64
	OutputTokens    int64
	CacheHitRatio   float64
	ContentHash     string
}

// Values returns row's fields as strings in Columns order, ready for
// CSV encoding.
func (r Row) Values() []string {
	return []string{
		r.BilledCost,
		r.EffectiveCost,
		r.ListCost,
		strconv.FormatInt(r.UsageQuantity, 10),
		r.UsageUnit,
		r.ResourceId,
		r.ResourceName,
		r.ServiceName,
		r.ServiceCategory,
		r.Provider,
		r.ChargeCategory,
		r.Tags,
		strconv.FormatInt(r.InputTokens, 10),
		strconv.FormatInt(r.OutputTokens, 10),
		strconv.FormatFloat(r.CacheHitRatio, 'f', 4, 64),
		r.ContentHash,
	}
}

// BuildRow maps a priced prompt to a FOCUS row. listResult is the
// cost computed without scenario adjustments (e.g. no cache discount);
// effectiveResult is the cost with whatever scenario the caller
// actually applied. Pass the same Result for both when there is no
// scenario distinction.
func BuildRow(resourceID, resourceName string, pd catalog.PriceDef, listResult, effectiveResult cost.Result, inputTokens, outputTokens int64, cacheHitRatio float64, contentHash string, tags map[string]string) Row {
	return Row{
		BilledCost:      cost.FormatPicoUSD(0),
		EffectiveCost:   cost.FormatPicoUSD(effectiveResult.TotalPico),
		ListCost:        cost.FormatPicoUSD(listResult.TotalPico),
		UsageQuantity:   inputTokens + outputTokens,
		UsageUnit:       usageUnit,
		ResourceId:      resourceID,
		ResourceName:    resourceName,
		ServiceName:     serviceName,
		ServiceCategory: serviceCategory,
		Provider:        string(pd.Provider),
		ChargeCategory:  chargeCategory,
		Tags:            CanonicalTagsJSON(tags),
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		CacheHitRatio:   cacheHitRatio,
		ContentHash:     contentHash,
	}
}

// CanonicalTagsJSON encodes tags as a JSON object with keys in
// lexicographic order and no insignificant whitespace (spec.md §4.9's
// RFC 8785 subset), so two runs over identical input produce identical
// bytes. Keys are set one at a time via sjson in sorted order, which
// is what actually guarantees the ordering: encoding/json would sort
// map keys too, but only sjson lets later pipeline stages (e.g. a
// future per-prompt metadata merge) patch a single key back into an
// already-canonical blob without re-serializing the whole object.
func CanonicalTagsJSON(tags map[string]string) string {
	if len(tags) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := "{}"
	for _, k := range keys {
		var err error
		doc, err = sjson.Set(doc, escapeSjsonPath(k), tags[k])
		if err != nil {
			// sjson.Set only fails on malformed path expressions; tag
			// keys are plain strings, never path syntax, from the set
			// this package is called with.
			panic("focusexport: unexpected sjson error for plain tag key: " + err.Error())
		}
	}
	return doc
}

// escapeSjsonPath backslash-escapes the characters sjson's path syntax
// treats specially (".", "*", "?", "\"), since tag keys are opaque
// strings, not path expressions.
func escapeSjsonPath(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\':
			out = append(out, '\\', key[i])
		default:
			out = append(out, key[i])
		}
	}
	return string(out)
}

// SortRowsByResourceID orders rows lexicographically by ResourceId, the
// ordering spec.md §5/§6 requires for byte-stable batch diffs.
func SortRowsByResourceID(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ResourceId < rows[j].ResourceId
	})
}
