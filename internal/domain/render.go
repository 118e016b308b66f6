package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// DateFrom asks the API for every review it has.
var DateFrom = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Render turns a decoded JSON value into its cell text. Scalars pass through,
// arrays and objects become compact JSON with sorted keys.
func Render(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
