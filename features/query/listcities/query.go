// Package listcities implements the "List Cities" use case: the distinct cities of all venues across every partition,
// sorted and free of duplicates.
package listcities

const (
	queryType = "ListCities"
)

// Query carries no criteria. Strict makes a single failed partition fail the query.
type Query struct {
	Strict bool
}

// QueryType returns the type of this query for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates the query.
func BuildQuery(strict bool) Query {
	return Query{Strict: strict}
}
