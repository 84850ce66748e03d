// Package scalars provides common custom GraphQL scalar types,
// implementing the graph-gophers custom scalar contract
// (ImplementsGraphQLType / UnmarshalGraphQL / MarshalJSON).
package scalars

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTime is an RFC 3339 timestamp scalar.
type DateTime struct {
	time.Time
}

// ImplementsGraphQLType maps DateTime to the schema's DateTime scalar.
func (DateTime) ImplementsGraphQLType(name string) bool {
	return name == "DateTime"
}

// UnmarshalGraphQL parses a DateTime from a query input value.
func (t *DateTime) UnmarshalGraphQL(input any) error {
	switch v := input.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("invalid DateTime: %w", err)
		}
		t.Time = parsed
		return nil
	default:
		return fmt.Errorf("invalid DateTime: expected string, got %T", input)
	}
}

// MarshalJSON renders the timestamp as an RFC 3339 string.
func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON parses an RFC 3339 string.
func (t *DateTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid DateTime: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid DateTime: %w", err)
	}
	t.Time = parsed
	return nil
}

// Upload is a multipart file upload scalar. The transport layer is
// responsible for filling it in.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImplementsGraphQLType maps Upload to the schema's Upload scalar.
func (Upload) ImplementsGraphQLType(name string) bool {
	return name == "Upload"
}

// UnmarshalGraphQL rejects literal inputs: uploads only arrive through
// the multipart transport.
func (u *Upload) UnmarshalGraphQL(input any) error {
	return fmt.Errorf("Upload scalar cannot be provided as a literal, got %T", input)
}
