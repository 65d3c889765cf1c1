package appwrite

import "testing"

func TestQuerySerialization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"order asc", OrderAsc("$createdAt"), `{"method":"orderAsc","attribute":"$createdAt"}`},
		{"equal", Equal("type", "Apartment"), `{"method":"equal","attribute":"type","values":["Apartment"]}`},
		{"search", Search("name", "lake"), `{"method":"search","attribute":"name","values":["lake"]}`},
		{"limit", Limit(5), `{"method":"limit","values":[5]}`},
		{
			"or",
			Or(Search("name", "lake"), Search("address", "lake")),
			`{"method":"or","values":[{"method":"search","attribute":"name","values":["lake"]},{"method":"search","attribute":"address","values":["lake"]}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.q) != tt.want {
				t.Errorf("got %s, want %s", tt.q, tt.want)
			}
		})
	}
}

func TestQueryAccessors(t *testing.T) {
	t.Parallel()

	q := Or(Search("name", "x"), Search("type", "x"))
	if q.Method() != "or" || q.Attribute() != "" {
		t.Fatalf("Method/Attribute = %q/%q", q.Method(), q.Attribute())
	}
	values := q.Values().Array()
	if len(values) != 2 || values[1].Get("attribute").String() != "type" {
		t.Fatalf("Values() = %v", q.Values())
	}
}
