package store

import (
	"fmt"

	"github.com/sharedcode/dbal"
)

// normalizeWrite clones values and applies the shared write-path rules:
// every write refreshes update_time; inserts fill descriptor defaults and
// stamp create_time when absent; and each non-nil *_time present in the
// payload gets its *_date companion recomputed in the same write so the pair
// can never go stale.
func normalizeWrite(schema *dbal.Schema, values dbal.Values, isCreate bool) (dbal.Values, error) {
	for name := range values {
		if !schema.Has(name) {
			return nil, fmt.Errorf("unknown field '%s' for table %s", name, schema.Table)
		}
	}
	out := values.Clone()
	if isCreate {
		for _, f := range schema.Fields {
			if f.Default == nil {
				continue
			}
			if v, ok := out[f.Name]; !ok || v == nil {
				out[f.Name] = f.Default
			}
		}
		if schema.Has("create_time") {
			if v, ok := out["create_time"]; !ok || v == nil {
				out["create_time"] = dbal.CurrentTimestamp()
			}
		}
	}
	if schema.Has("update_time") {
		out["update_time"] = dbal.CurrentTimestamp()
	}
	for _, tf := range dbal.AutoTimeFields() {
		df := dbal.DateFieldFor(tf)
		if !schema.Has(tf) || !schema.Has(df) {
			continue
		}
		v, ok := out[tf]
		if !ok || v == nil {
			continue
		}
		ms, ok := dbal.ToMillis(v)
		if !ok {
			return nil, fmt.Errorf("field '%s' must be an epoch in milliseconds, got %T", tf, v)
		}
		out[tf] = ms
		out[df] = dbal.TimestampToDate(ms)
	}
	return out, nil
}
