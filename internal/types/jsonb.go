package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

var (
	_ sql.Scanner   = (*RuleSpec)(nil)
	_ driver.Valuer = RuleSpec{}
)

// scanJSONB decodes a JSONB column delivered either as bytes or as text.
func scanJSONB(dest any, value any) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, dest)
}

// Scan reads a rule spec stored as JSONB. Rule specs are user-editable JSON
// and decode with the same alias handling as API input.
func (r *RuleSpec) Scan(value any) error {
	if value == nil {
		*r = RuleSpec{}
		return nil
	}
	return scanJSONB(r, value)
}

func (r RuleSpec) Value() (driver.Value, error) {
	return json.Marshal(r)
}
