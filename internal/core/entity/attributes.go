package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Attributes represents a JSONB metadata blob with type-safe accessors.
// Implements sql.Scanner and driver.Valuer for PostgreSQL JSONB mapping.
// Used for auth-provider style account metadata (impersonation state and
// similar per-user flags).
type Attributes map[string]any

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
// UseNumber() keeps numeric values out of float64 truncation.
func (a *Attributes) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Attributes: %T", src)
	}

	if len(source) == 0 {
		*a = nil
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var result map[string]any
	if err := decoder.Decode(&result); err != nil {
		return fmt.Errorf("decode attributes: %w", err)
	}

	*a = result
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// GetString returns string value or empty string if not found/wrong type.
func (a Attributes) GetString(key string) string {
	if a == nil {
		return ""
	}
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// GetTime parses an RFC 3339 value or returns the zero time.
func (a Attributes) GetTime(key string) time.Time {
	s := a.GetString(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Set stores a value, allocating the map on first use.
func (a *Attributes) Set(key string, value any) {
	if *a == nil {
		*a = make(Attributes)
	}
	(*a)[key] = value
}

// Delete removes a key; no-op on nil maps.
func (a Attributes) Delete(key string) {
	if a != nil {
		delete(a, key)
	}
}
