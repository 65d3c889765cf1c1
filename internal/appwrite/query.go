package appwrite

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Query is one serialized database query, sent as a queries[] parameter.
type Query string

func newQuery(method, attribute string, values any) Query {
	q, _ := sjson.Set(`{}`, "method", method)
	if attribute != "" {
		q, _ = sjson.Set(q, "attribute", attribute)
	}
	if values != nil {
		q, _ = sjson.Set(q, "values", values)
	}
	return Query(q)
}

// Method returns the query method name.
func (q Query) Method() string { return gjson.Get(string(q), "method").String() }

// Attribute returns the attribute the query applies to, if any.
func (q Query) Attribute() string { return gjson.Get(string(q), "attribute").String() }

// Values returns the raw values array.
func (q Query) Values() gjson.Result { return gjson.Get(string(q), "values") }

// OrderAsc sorts by attribute ascending.
func OrderAsc(attribute string) Query { return newQuery("orderAsc", attribute, nil) }

// OrderDesc sorts by attribute descending.
func OrderDesc(attribute string) Query { return newQuery("orderDesc", attribute, nil) }

// Equal matches documents whose attribute equals value.
func Equal(attribute string, value any) Query {
	return newQuery("equal", attribute, []any{value})
}

// Search runs a full-text search on attribute.
func Search(attribute, value string) Query {
	return newQuery("search", attribute, []string{value})
}

// Limit caps the number of documents returned.
func Limit(n int) Query { return newQuery("limit", "", []int{n}) }

// Or matches documents satisfying any of queries.
func Or(queries ...Query) Query {
	q := string(newQuery("or", "", []any{}))
	for _, sub := range queries {
		q, _ = sjson.SetRaw(q, "values.-1", string(sub))
	}
	return Query(q)
}
