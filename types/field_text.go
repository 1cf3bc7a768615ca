package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldText holds the text of an editable field. It unmarshals from either a
// JSON string or a JSON number, so "12", 12 and 11.6 all survive as typed.
type FieldText string

func (f *FieldText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FieldText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid field JSON: %q", string(b))
	}
	*f = FieldText(n.String())
	return nil
}
