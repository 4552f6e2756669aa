package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/dmitrymomot/sessionkit/pkg/token"
)

const (
	minSecretLength = 32

	// Browsers drop cookies whose name plus value exceed this size.
	maxCookieSize = 4096

	encryptionInfo = "sessionkit-cookie-encryption-v1"
)

type Manager struct {
	secrets  []string
	aeads    []cipher.AEAD // one per secret, same order
	defaults Options
}

func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	aeads := make([]cipher.AEAD, 0, len(secrets))
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
		aead, err := newAEAD(s)
		if err != nil {
			return nil, err
		}
		aeads = append(aeads, aead)
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		secrets:  secrets,
		aeads:    aeads,
		defaults: applyOptions(defaults, opts),
	}, nil
}

// newAEAD derives an AES-256 key from secret with HKDF-SHA256.
func newAEAD(secret string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(encryptionInfo)), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Defaults returns the options applied to every cookie written by m.
func (m *Manager) Defaults() Options {
	return m.defaults
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	if len(name)+len(value) > maxCookieSize {
		return fmt.Errorf("%w: %q is %d bytes", ErrValueTooLarge, name, len(name)+len(value))
	}

	options := applyOptions(m.defaults, opts)

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
	if options.MaxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(options.MaxAge) * time.Second)
	}

	http.SetCookie(w, cookie)
	return nil
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// Has reports whether the request carries a cookie with the given name.
func (m *Manager) Has(r *http.Request, name string) bool {
	_, err := r.Cookie(name)
	return err == nil
}

// Delete expires the cookie on the client. Path and domain must match the ones it was set with.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	options := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
		Secure:   options.Secure,
	})
}

// SetSigned writes value with a signature bound to the cookie name.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	signed, err := m.Sign(value, name)
	if err != nil {
		return err
	}
	return m.Set(w, name, signed, opts...)
}

func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.Unsign(signed, name)
}

// SetEncrypted writes value encrypted for the cookie name.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	encrypted, err := m.Encrypt(value, name)
	if err != nil {
		return err
	}
	return m.Set(w, name, encrypted, opts...)
}

func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	encrypted, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.Decrypt(encrypted, name)
}

// Sign returns value in a signed envelope that only verifies for purpose.
func (m *Manager) Sign(value, purpose string) (string, error) {
	return token.Sign(value, purpose, m.secrets[0])
}

// Unsign verifies an envelope produced by Sign under any configured secret.
func (m *Manager) Unsign(signed, purpose string) (string, error) {
	value, err := token.Verify(signed, purpose, m.secrets...)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			return "", ErrInvalidFormat
		}
		return "", errors.Join(ErrInvalidSignature, err)
	}
	return value, nil
}

// Encrypt seals value with AES-GCM using purpose as additional data, so the
// ciphertext only opens for the same purpose.
func (m *Manager) Encrypt(value, purpose string) (string, error) {
	gcm := m.aeads[0]

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(value), []byte(purpose))
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt, trying every configured secret.
func (m *Manager) Decrypt(encrypted, purpose string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, gcm := range m.aeads {
		if len(ciphertext) < gcm.NonceSize() {
			return "", ErrInvalidFormat
		}
		nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
		if plaintext, err := gcm.Open(nil, nonce, sealed, []byte(purpose)); err == nil {
			return string(plaintext), nil
		}
	}

	return "", ErrDecryptionFailed
}
