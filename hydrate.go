package prettyorm

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"

	"github.com/gentledepp/prettyorm/schema"
)

// Hydrate advances rows to the next row and converts it into one record.
// Cells whose column name matches a mapped column are coerced to that
// column's semantic type and assigned; cells without a matching column are
// silently ignored, so extra legacy columns never cause failure. Returns
// ErrRecordNotFound when the sequence is exhausted.
func Hydrate[T any](rows Rows, m *schema.Mapping[T]) (*T, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRecordNotFound
	}
	return hydrateCurrent(rows, m)
}

// HydrateAll drains rows into records.
func HydrateAll[T any](rows Rows, m *schema.Mapping[T]) ([]*T, error) {
	var records []*T
	for rows.Next() {
		rec, err := hydrateCurrent(rows, m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func hydrateCurrent[T any](rows Rows, m *schema.Mapping[T]) (*T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}

	// mutable build phase: assign cell by cell onto a fresh record
	rec := new(T)
	for i, name := range columns {
		col, ok := m.Column(name)
		if !ok {
			continue
		}
		coerced, err := coerce(col.Field, values[i])
		if err != nil {
			return nil, err
		}
		if err := col.Assign(rec, coerced); err != nil {
			return nil, &CoercionError{Column: col.Name, DataType: col.DataType, Value: values[i]}
		}
	}

	// finalize phase
	if err := m.Finalize(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// coerce converts a raw stored value into the canonical representation of the
// column's semantic type: int64 for integer kinds, float64 for float kinds,
// string, []byte, bool, time.Time, time duration as int64 nanoseconds, and
// uuid.UUID. A nil cell stays nil.
func coerce(f schema.Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	fail := func() (any, error) {
		return nil, &CoercionError{Column: f.Name, DataType: f.DataType, Value: raw}
	}

	// sqlite's TEXT affinity may surface as []byte; treat it as text for
	// every type except Bytes itself
	if b, ok := raw.([]byte); ok && f.DataType != schema.Bytes && f.DataType != schema.UUID {
		raw = string(b)
	}

	switch f.DataType {
	case schema.Bool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fail()
			}
			return b, nil
		}

	case schema.Int, schema.Uint, schema.Enum, schema.Duration:
		switch v := raw.(type) {
		case int64:
			return v, nil
		case float64:
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fail()
			}
			return n, nil
		}

	case schema.Float, schema.Decimal:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fail()
			}
			return x, nil
		}

	case schema.String:
		switch v := raw.(type) {
		case string:
			return v, nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}

	case schema.Time, schema.TimeOffset:
		switch v := raw.(type) {
		case int64:
			return time.Unix(0, v).UTC(), nil
		case time.Time:
			return v, nil
		case string:
			t, err := now.Parse(v)
			if err != nil {
				return fail()
			}
			return t, nil
		}

	case schema.Bytes:
		switch v := raw.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}

	case schema.UUID:
		switch v := raw.(type) {
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return fail()
			}
			return id, nil
		case []byte:
			if len(v) == 16 {
				id, err := uuid.FromBytes(v)
				if err != nil {
					return fail()
				}
				return id, nil
			}
			id, err := uuid.ParseBytes(v)
			if err != nil {
				return fail()
			}
			return id, nil
		}
	}

	return fail()
}
