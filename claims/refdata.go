/*
refdata.go - Reference data loader

PURPOSE:
  Fetches the two dictionary slices the calculators depend on into a typed
  lookup: injury criteria factors (type "InjuryPercent") and named system
  parameters (type "SystemParameter"). Reference data is static per
  deployment and loaded once per session.

DEFENSIVE PARSING:
  Stored values are strings and may be corrupt. A non-numeric or missing
  value parses to zero, never to an error, so the calculators stay total
  functions. MaxChildAge is the one exception: it defaults to 16.

CACHING:
  The loader keeps the last successful load. A refetch failure with a
  cached copy present returns the cache; without one it returns
  ErrReferenceData.
*/
package claims

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/store"
)

// =============================================================================
// TYPED LOOKUPS
// =============================================================================

// InjuryCriterion is one statutory injury criteria label with its factor.
type InjuryCriterion struct {
	Criterion string
	Factor    decimal.Decimal
}

// SystemParameters is the named-parameter lookup. Well-known keys get
// typed accessors; unknown keys remain reachable through Amount.
type SystemParameters struct {
	values map[string]string
}

// Amount parses the named parameter as a decimal; missing or non-numeric
// values read as zero.
func (p SystemParameters) Amount(key string) decimal.Decimal {
	return ParseAmount(p.values[key])
}

func (p SystemParameters) MinDeathCompensation() decimal.Decimal {
	return p.Amount("MinCompensationAmountDeath")
}

func (p SystemParameters) MaxDeathCompensation() decimal.Decimal {
	return p.Amount("MaxCompensationAmountDeath")
}

func (p SystemParameters) WeeklyChildRate() decimal.Decimal {
	return p.Amount("WeeklyCompensationPerChildDeath")
}

// MaxChildAge defaults to 16 when the parameter is absent or non-numeric.
func (p SystemParameters) MaxChildAge() int {
	raw, ok := p.values["MaxChildAge"]
	if !ok {
		return 16
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 16
	}
	return n
}

// ParseAmount parses a stored decimal string, reading corrupt values as
// zero to keep the calculators crash-free on bad reference data.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RefData is the full reference snapshot for a session.
type RefData struct {
	Criteria []InjuryCriterion
	Params   SystemParameters
}

// =============================================================================
// LOADER
// =============================================================================

// Loader fetches reference data and caches the last successful snapshot.
type Loader struct {
	Store store.RecordStore

	mu     sync.Mutex
	cached *RefData
}

func NewLoader(st store.RecordStore) *Loader {
	return &Loader{Store: st}
}

// Load returns the current reference snapshot. On fetch failure the cached
// snapshot from a prior load is returned if present; otherwise the error
// wraps ErrReferenceData.
func (l *Loader) Load(ctx context.Context) (*RefData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	criteria, err := l.Store.Find(ctx, "dictionary", store.Filter{"type": "InjuryPercent"})
	if err != nil {
		return l.cachedOr(err)
	}
	params, err := l.Store.Find(ctx, "dictionary", store.Filter{"type": "SystemParameter"})
	if err != nil {
		return l.cachedOr(err)
	}

	ref := &RefData{Params: SystemParameters{values: make(map[string]string)}}
	for _, rec := range criteria {
		ref.Criteria = append(ref.Criteria, InjuryCriterion{
			Criterion: rec["key"],
			Factor:    ParseAmount(rec["value"]),
		})
	}
	// Stable order for checklist rendering regardless of store order.
	sort.Slice(ref.Criteria, func(i, j int) bool {
		return ref.Criteria[i].Criterion < ref.Criteria[j].Criterion
	})
	for _, rec := range params {
		ref.Params.values[rec["key"]] = rec["value"]
	}

	l.cached = ref
	return ref, nil
}

func (l *Loader) cachedOr(err error) (*RefData, error) {
	if l.cached != nil {
		return l.cached, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrReferenceData, err)
}

// NewSystemParameters builds a parameter lookup directly from key/value
// pairs. Used by tests and by callers that already hold dictionary rows.
func NewSystemParameters(values map[string]string) SystemParameters {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return SystemParameters{values: m}
}
