// Package token signs JSON payloads with HMAC-SHA256 so they can be stored in places the
// application does not control (files, a shared cache, client cookies) and verified on
// the way back.
//
// Token format: base64url(payload).base64url(signature)
//
// Envelopes bind a message to a purpose. Session drivers use the session id as the
// purpose, so a record copied under another id fails verification:
//
//	signed, err := token.Sign(payload, sessionID, secret)
//	if err != nil {
//	    return err
//	}
//
//	msg, err := token.Verify(signed, sessionID, secret, previousSecret)
//	if errors.Is(err, token.ErrPurposeMismatch) {
//	    // record was issued for another session
//	}
//
// Verification accepts several secrets, newest first, to support key rotation.
//
// Returns ErrInvalidToken for malformed tokens, ErrSignatureInvalid for signature
// mismatches and ErrPurposeMismatch for envelopes issued for another purpose.
package token
