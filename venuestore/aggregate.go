package venuestore

import (
	"fmt"
	"slices"
	"sort"
)

// AggregateKind names the aggregate computed over matching venues.
type AggregateKind string

// Supported aggregate kinds.
const (
	AggregateCount          AggregateKind = "count"
	AggregateSum            AggregateKind = "sum"
	AggregateAverage        AggregateKind = "average"
	AggregateDistinctCities AggregateKind = "distinct_cities"
	AggregateDistinctNames  AggregateKind = "distinct_names"
)

// AggregateField names the numeric venue attribute used by sum and average.
type AggregateField string

// Supported aggregate fields.
const (
	FieldCapacity     AggregateField = "capacity"
	FieldPricePerHour AggregateField = "price_per_hour"
)

// GroupBy names the attribute aggregates are grouped by.
type GroupBy string

// Supported groupings.
const (
	GroupByNone GroupBy = ""
	GroupByCity GroupBy = "city"
)

// AggregateQuery describes one aggregate over the venues matching Filter.
type AggregateQuery struct {
	Kind    AggregateKind
	Field   AggregateField
	GroupBy GroupBy
	Filter  SearchFilter
}

// NeedsField reports whether the kind aggregates a numeric field.
func (q AggregateQuery) NeedsField() bool {
	return q.Kind == AggregateSum || q.Kind == AggregateAverage
}

// Validate checks that kind, field, and grouping are known and consistent.
func (q AggregateQuery) Validate() error {
	switch q.Kind {
	case AggregateCount, AggregateDistinctCities, AggregateDistinctNames:
	case AggregateSum, AggregateAverage:
		if q.Field != FieldCapacity && q.Field != FieldPricePerHour {
			return validationError(fmt.Sprintf("aggregate %s needs a field of capacity or price_per_hour, got %q", q.Kind, q.Field))
		}
	default:
		return validationError(fmt.Sprintf("unknown aggregate kind %q", q.Kind))
	}

	if q.GroupBy != GroupByNone && q.GroupBy != GroupByCity {
		return validationError(fmt.Sprintf("unknown group by %q", q.GroupBy))
	}

	return q.Filter.Validate()
}

// PartialAggregate is the contribution of one partition to one group.
// Count is the number of matching venues, Sum the total of the queried field,
// Values the distinct values for the distinct kinds.
type PartialAggregate struct {
	Group  string
	Count  int64
	Sum    float64
	Values []string
}

// AggregateRow is the merged aggregate of one group across all partitions.
type AggregateRow struct {
	Group   string
	Count   int64
	Sum     float64
	Average float64
	Values  []string
}

// Value returns the number the query asked for.
func (r AggregateRow) Value(kind AggregateKind) float64 {
	switch kind {
	case AggregateSum:
		return r.Sum
	case AggregateAverage:
		return r.Average
	case AggregateDistinctCities, AggregateDistinctNames:
		return float64(len(r.Values))
	default:
		return float64(r.Count)
	}
}

// AggregateResult is the merged answer of an AggregateQuery, rows sorted by group.
type AggregateResult struct {
	Query AggregateQuery
	Rows  []AggregateRow
}

// ComputePartial evaluates the query over the venues of one partition.
func ComputePartial(venues Venues, q AggregateQuery) []PartialAggregate {
	byGroup := make(map[string]*PartialAggregate)
	order := make([]string, 0)

	for _, v := range venues {
		if !q.Filter.Matches(v) {
			continue
		}

		group := groupOf(v, q.GroupBy)
		partial, ok := byGroup[group]
		if !ok {
			partial = &PartialAggregate{Group: group}
			byGroup[group] = partial
			order = append(order, group)
		}

		partial.Count++
		if q.NeedsField() {
			partial.Sum += fieldOf(v, q.Field)
		}

		switch q.Kind {
		case AggregateDistinctCities:
			partial.Values = appendUnique(partial.Values, v.City)
		case AggregateDistinctNames:
			partial.Values = appendUnique(partial.Values, v.Name)
		}
	}

	partials := make([]PartialAggregate, 0, len(order))
	for _, group := range order {
		partial := *byGroup[group]
		sort.Strings(partial.Values)
		partials = append(partials, partial)
	}

	return partials
}

// MergeAggregates combines the partials of all partitions.
// Counts and sums add, averages are recomputed from the merged sum and count,
// distinct values are unioned. An ungrouped query always yields exactly one row.
func MergeAggregates(q AggregateQuery, partitionPartials ...[]PartialAggregate) AggregateResult {
	byGroup := make(map[string]*AggregateRow)

	for _, partials := range partitionPartials {
		for _, partial := range partials {
			row, ok := byGroup[partial.Group]
			if !ok {
				row = &AggregateRow{Group: partial.Group}
				byGroup[partial.Group] = row
			}

			row.Count += partial.Count
			row.Sum += partial.Sum
			for _, value := range partial.Values {
				row.Values = appendUnique(row.Values, value)
			}
		}
	}

	if q.GroupBy == GroupByNone {
		if _, ok := byGroup[""]; !ok {
			byGroup[""] = &AggregateRow{}
		}
	}

	rows := make([]AggregateRow, 0, len(byGroup))
	for _, row := range byGroup {
		if row.Count > 0 {
			row.Average = row.Sum / float64(row.Count)
		}

		sort.Strings(row.Values)
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Group < rows[j].Group })

	return AggregateResult{Query: q, Rows: rows}
}

func groupOf(v Venue, groupBy GroupBy) string {
	if groupBy == GroupByCity {
		return v.City
	}

	return ""
}

func fieldOf(v Venue, field AggregateField) float64 {
	if field == FieldCapacity {
		return float64(v.Capacity)
	}

	return v.PricePerHour
}

func appendUnique(values []string, value string) []string {
	if slices.Contains(values, value) {
		return values
	}

	return append(values, value)
}
