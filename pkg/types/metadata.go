package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is arbitrary JSON metadata stored alongside a record
type Metadata map[string]interface{}

// Value implements driver.Valuer for database serialization
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database deserialization
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}
}
