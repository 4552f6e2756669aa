package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// GenerateToken JSON-encodes payload and appends an HMAC-SHA256 signature over it.
func GenerateToken[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	payloadEnc := base64.RawURLEncoding.EncodeToString(data)
	sigEnc := base64.RawURLEncoding.EncodeToString(signature(data, secret))

	return payloadEnc + "." + sigEnc, nil
}

func signature(data []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return h.Sum(nil)
}
