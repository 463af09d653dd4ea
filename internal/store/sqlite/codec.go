package sqlite

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"ordstack/internal/order"

	"gorm.io/datatypes"
)

// Records travel to the database as one JSON document. JSON has no NaN,
// so unpriced legs are written as null and read back as NaN by the
// record decoder; times are written as RFC 3339 strings.

func encodeRecord(rec order.Record) (datatypes.JSON, error) {
	safe := make(map[string]any, len(rec))
	for k, v := range rec {
		safe[k] = jsonSafeValue(v)
	}
	raw, err := json.Marshal(safe)
	if err != nil {
		return nil, fmt.Errorf("encoding order record: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func decodeRecord(raw datatypes.JSON) (order.Record, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding order record: %w", err)
	}
	return order.Record(m), nil
}

func jsonSafeValue(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return nil
		}
		return t
	case []float64:
		out := make([]any, len(t))
		for i, p := range t {
			if math.IsNaN(p) {
				out[i] = nil
			} else {
				out[i] = p
			}
		}
		return out
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
