// Package codec converts session values into a loss-less, JSON-friendly tagged form
// and back.
//
// String-oriented storage back-ends (files, Redis, cookies) can only persist text, yet
// session data routinely carries dates, integers, nested objects and database
// identifiers. The codec tags every value with its kind so the exact Go value can be
// rebuilt on the next request.
//
// # Value set
//
// The set of supported values is closed:
//
//	string            → "string"
//	int64 / float64   → "number"   (all Go integer and float kinds are accepted)
//	bool              → "boolean"
//	time.Time         → "date"     (stored as RFC 3339 with nanoseconds, UTC)
//	map[string]any    → "object"
//	[]any             → "array"
//	bson.ObjectID     → "objectid" (24 hex characters)
//
// Anything else (functions, channels, structs, pointers) is rejected with
// ErrUnsupportedValueType. Integers stay integers and floats stay floats across a
// round trip: a float with no fractional part is written as "2.0" so it decodes back to
// float64.
//
// # Usage
//
//	enc, err := codec.Encode(map[string]any{"age": 22, "seen": time.Now()})
//	if err != nil {
//	    return err
//	}
//	raw, _ := json.Marshal(enc)
//
//	var back codec.Encoded
//	_ = json.Unmarshal(raw, &back)
//	v, err := codec.Decode(back) // map[string]any{"age": int64(22), "seen": time.Time{...}}
//
// Normalize exposes the canonical form directly. It is what Decode(Encode(v)) returns,
// so callers can keep in-memory values identical to the values they will read back
// after a round trip.
//
// # Error Handling
//
//   - ErrUnsupportedValueType: the value (or a nested value) is outside the value set
//   - ErrMalformedEncodedValue: unknown tag, or a payload that does not match its tag
package codec
