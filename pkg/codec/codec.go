package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind is the type tag stored next to every encoded value.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindDate     Kind = "date"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindObjectID Kind = "objectid"
)

// Encoded is the persisted form of a single value.
type Encoded struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

type kindFuncs struct {
	encode func(v any) (json.RawMessage, error)
	decode func(raw json.RawMessage) (any, error)
}

// kinds is populated in init because object and array encoders recurse through it.
var kinds map[Kind]kindFuncs

func init() {
	kinds = map[Kind]kindFuncs{
		KindString:   {encode: encodeJSON, decode: decodeString},
		KindNumber:   {encode: encodeNumber, decode: decodeNumber},
		KindBoolean:  {encode: encodeJSON, decode: decodeBoolean},
		KindDate:     {encode: encodeDate, decode: decodeDate},
		KindObject:   {encode: encodeObject, decode: decodeObject},
		KindArray:    {encode: encodeArray, decode: decodeArray},
		KindObjectID: {encode: encodeObjectID, decode: decodeObjectID},
	}
}

// Encode tags v and converts it into its persisted form.
func Encode(v any) (Encoded, error) {
	n, err := Normalize(v)
	if err != nil {
		return Encoded{}, err
	}
	if n == nil {
		return Encoded{}, fmt.Errorf("%w: <nil>", ErrUnsupportedValueType)
	}
	return encode(n)
}

// Decode rebuilds the value held by e.
func Decode(e Encoded) (any, error) {
	fns, ok := kinds[e.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedEncodedValue, e.Type)
	}
	raw := bytes.TrimSpace(e.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: empty %s payload", ErrMalformedEncodedValue, e.Type)
	}
	return fns.decode(raw)
}

// encode expects a normalized, non-nil value.
func encode(n any) (Encoded, error) {
	kind, ok := kindOf(n)
	if !ok {
		return Encoded{}, fmt.Errorf("%w: %T", ErrUnsupportedValueType, n)
	}
	raw, err := kinds[kind].encode(n)
	if err != nil {
		return Encoded{}, err
	}
	return Encoded{Type: kind, Value: raw}, nil
}

func kindOf(n any) (Kind, bool) {
	switch n.(type) {
	case string:
		return KindString, true
	case int64, float64:
		return KindNumber, true
	case bool:
		return KindBoolean, true
	case time.Time:
		return KindDate, true
	case map[string]any:
		return KindObject, true
	case []any:
		return KindArray, true
	case bson.ObjectID:
		return KindObjectID, true
	default:
		return "", false
	}
}

func encodeJSON(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}

func encodeNumber(v any) (json.RawMessage, error) {
	switch n := v.(type) {
	case int64:
		return strconv.AppendInt(nil, n, 10), nil
	case float64:
		return json.RawMessage(formatFloat(n)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValueType, v)
}

func encodeDate(v any) (json.RawMessage, error) {
	return json.Marshal(v.(time.Time).Format(time.RFC3339Nano))
}

func encodeObject(v any) (json.RawMessage, error) {
	m := v.(map[string]any)
	out := make(map[string]Encoded, len(m))
	for k, child := range m {
		enc, err := encode(child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = enc
	}
	return json.Marshal(out)
}

func encodeArray(v any) (json.RawMessage, error) {
	s := v.([]any)
	out := make([]Encoded, len(s))
	for i, child := range s {
		enc, err := encode(child)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = enc
	}
	return json.Marshal(out)
}

func encodeObjectID(v any) (json.RawMessage, error) {
	return json.Marshal(v.(bson.ObjectID).Hex())
}

func decodeString(raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed(KindString, err)
	}
	return s, nil
}

func decodeNumber(raw json.RawMessage) (any, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, malformed(KindNumber, err)
	}
	return parseNumber(n.String())
}

func decodeBoolean(raw json.RawMessage) (any, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, malformed(KindBoolean, err)
	}
	return b, nil
}

func decodeDate(raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed(KindDate, err)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, malformed(KindDate, err)
	}
	return t.UTC(), nil
}

func decodeObject(raw json.RawMessage) (any, error) {
	var m map[string]Encoded
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, malformed(KindObject, err)
	}
	out := make(map[string]any, len(m))
	for k, enc := range m {
		v, err := Decode(enc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func decodeArray(raw json.RawMessage) (any, error) {
	var s []Encoded
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed(KindArray, err)
	}
	out := make([]any, len(s))
	for i, enc := range s {
		v, err := Decode(enc)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeObjectID(raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed(KindObjectID, err)
	}
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return nil, malformed(KindObjectID, err)
	}
	return oid, nil
}

func malformed(kind Kind, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedEncodedValue, kind, err)
}
