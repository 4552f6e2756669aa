// Package cookie provides a secure HTTP cookie manager for session transport.
//
// It wraps net/http cookies with helpers for plain, signed and encrypted values. Every
// signature and every ciphertext is bound to a purpose string: the cookie name for
// SetSigned/SetEncrypted, or any caller-chosen string for Sign/Encrypt. A value issued
// for one purpose never verifies or decrypts under another, so a cookie copied to a
// different name, or a stored record copied under a different session id, is rejected.
//
// # Overview
//
// The Manager is initialised with one or more secrets (at least 32 characters) and a set
// of default cookie Options.
//
//   - Set(), Get(), Has(), Delete(): plain cookies
//   - SetSigned(), GetSigned(): signed cookies (integrity only)
//   - SetEncrypted(), GetEncrypted(): encrypted cookies (integrity + privacy)
//   - Sign(), Unsign(), Encrypt(), Decrypt(): the same primitives without a cookie
//
// # Architecture
//
// Signing produces a token.Envelope {message, purpose} signed with HMAC-SHA256 (see
// package token). Encryption uses AES-256-GCM with a key derived from each secret through
// HKDF-SHA256; the purpose is passed as GCM additional data and a random nonce is
// prepended to the ciphertext. The first secret writes, all secrets read, which allows
// key rotation.
//
// # Usage
//
//	man, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = man.SetSigned(w, "sid", sessionID, cookie.WithMaxAge(7200))
//	id, err := man.GetSigned(r, "sid")
//
// # Configuration
//
// Config can be populated from environment variables via github.com/caarlos0/env and
// passed to NewFromConfig.
//
// # Error Handling
//
// Sentinel errors such as ErrCookieNotFound, ErrInvalidSignature, ErrDecryptionFailed and
// ErrValueTooLarge can be matched with errors.Is.
package cookie
