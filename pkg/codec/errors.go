package codec

import "errors"

var (
	// ErrUnsupportedValueType is returned when a value outside the supported set is encoded.
	ErrUnsupportedValueType = errors.New("codec.unsupported_value_type")

	// ErrMalformedEncodedValue is returned when a tag/payload pair cannot be decoded.
	ErrMalformedEncodedValue = errors.New("codec.malformed_encoded_value")
)
