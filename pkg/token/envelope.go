package token

// Envelope is the signed record shape: a message bound to the purpose it was issued for.
type Envelope struct {
	Message string `json:"message"`
	Purpose string `json:"purpose"`
}

// Sign wraps message in an Envelope for purpose and signs it with secret.
func Sign(message, purpose, secret string) (string, error) {
	return GenerateToken(Envelope{Message: message, Purpose: purpose}, secret)
}

// Verify checks the envelope signature and that it was issued for purpose,
// then returns the enclosed message.
func Verify(token, purpose string, secrets ...string) (string, error) {
	env, err := ParseToken[Envelope](token, secrets...)
	if err != nil {
		return "", err
	}
	if env.Purpose != purpose {
		return "", ErrPurposeMismatch
	}
	return env.Message, nil
}
