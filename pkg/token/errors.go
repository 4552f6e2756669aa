package token

import "errors"

var (
	ErrNoSecret         = errors.New("token.no_secret")
	ErrInvalidToken     = errors.New("token.malformed")
	ErrSignatureInvalid = errors.New("token.bad_signature")
	ErrPurposeMismatch  = errors.New("token.purpose_mismatch")
)
