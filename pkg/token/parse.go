package token

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ParseToken verifies the signature against each secret in order and decodes the payload.
// Passing several secrets lets tokens signed with a retired secret keep verifying.
func ParseToken[T any](token string, secrets ...string) (T, error) {
	var payload T
	if len(secrets) == 0 {
		return payload, ErrNoSecret
	}

	payloadEnc, sigEnc, ok := strings.Cut(token, ".")
	if !ok || strings.Contains(sigEnc, ".") {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(payloadEnc)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	sig, err := base64.RawURLEncoding.DecodeString(sigEnc)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	verified := false
	for _, secret := range secrets {
		if hmac.Equal(sig, signature(data, secret)) {
			verified = true
			break
		}
	}
	if !verified {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	return payload, nil
}
