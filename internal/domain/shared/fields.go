package shared

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Fields is the keyed state blob every component writes and reads.
//
// Getters never fail: absent or malformed values read as the zero value, so a
// component restored from a damaged blob degrades to its defaults.
type Fields map[string]any

// NewFields creates an empty blob
func NewFields() Fields {
	return Fields{}
}

// Set stores a value under key
func (f Fields) Set(key string, value any) {
	f[key] = value
}

// SetAmount stores an Amount as its exact sub-unit count
func (f Fields) SetAmount(key string, a Amount) {
	f[key] = strconv.FormatInt(a.SubUnits(), 10)
}

// Has reports whether key is present
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Int reads an integer value
func (f Fields) Int(key string) int64 {
	switch v := f[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint64:
		if v > math.MaxInt64 {
			return 0
		}
		return int64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0
		}
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Float reads a floating point value
func (f Fields) Float(key string) float64 {
	var out float64
	switch v := f[key].(type) {
	case float64:
		out = v
	case float32:
		out = float64(v)
	case int:
		out = float64(v)
	case int64:
		out = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0
		}
		out = n
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		out = n
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

// String reads a string value
func (f Fields) String(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

// Bool reads a boolean value
func (f Fields) Bool(key string) bool {
	if b, ok := f[key].(bool); ok {
		return b
	}
	return false
}

// Amount reads an Amount written by SetAmount
func (f Fields) Amount(key string) Amount {
	return AmountOfSubUnits(f.Int(key))
}

// Fields reads a nested blob
func (f Fields) Fields(key string) Fields {
	switch v := f[key].(type) {
	case Fields:
		return v
	case map[string]any:
		return Fields(v)
	}
	return Fields{}
}

// List reads a list of nested blobs, skipping malformed entries
func (f Fields) List(key string) []Fields {
	var out []Fields
	switch v := f[key].(type) {
	case []Fields:
		return v
	case []map[string]any:
		for _, item := range v {
			out = append(out, Fields(item))
		}
	case []any:
		for _, item := range v {
			switch m := item.(type) {
			case Fields:
				out = append(out, m)
			case map[string]any:
				out = append(out, Fields(m))
			}
		}
	}
	return out
}

// Merge copies every key of other into f
func (f Fields) Merge(other Fields) {
	for k, v := range other {
		f[k] = v
	}
}

// DecodeFields parses a JSON blob. Numbers stay json.Number so 64-bit sub-unit amounts survive.
func DecodeFields(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	f := NewFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	return f, nil
}
