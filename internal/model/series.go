package model

import "time"

// GramsPerTroyOunce converts troy ounces to grams.
const GramsPerTroyOunce = 31.1034768

// TimeSeries maps ISO calendar days (YYYY-MM-DD) to a nullable close value.
// A nil entry means the source reported the date but the value was unusable.
type TimeSeries map[string]*float64

// MergeMissing copies observations from other into the receiver, but only for
// dates the receiver does not already hold a non-null value for. Redundant
// mirrors of the same source are combined this way: first non-null wins, a
// later null never overwrites a known value.
func (ts TimeSeries) MergeMissing(other TimeSeries) {
	for d, v := range other {
		if cur, ok := ts[d]; !ok || cur == nil {
			ts[d] = v
		}
	}
}

// HistoryRow is one reconciled day: the benchmark value plus one value per
// tracked macro series, each independently nullable.
type HistoryRow struct {
	Timestamp string
	Values    map[string]*float64
}

// SpotQuote is the current XAUUSD quote with derived unit prices. Price is
// USD per troy ounce and nil when every endpoint failed. The derived fields
// are rounded for presentation; Price itself is not.
type SpotQuote struct {
	Timestamp   time.Time
	Price       *float64
	Source      string
	SpotDate    *string
	USDPerOunce *float64
	USDPerGram  *float64
	USDPerKg    *float64
}
