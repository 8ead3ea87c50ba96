// Package security implements the credential formats the rest of the
// system depends on: salted SHA-256 password hashes stored as
// "{salt},{hex}" and HMAC-signed tokens of the form "{value}|{hex}".
// Both formats are load-bearing; stored hashes and issued cookies only
// keep verifying if they stay exactly like this.
package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	saltLength         = 10
	stateTokenLength   = 32
	tempPasswordLength = 10

	saltAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// MakePasswordHash returns "{salt},{hex}" where hex is the SHA-256
// digest of identity+password+salt with a fresh random salt. The
// identity (normally the account email) is mixed in so the same
// password hashes differently across accounts.
func MakePasswordHash(identity, password string) string {
	return makePasswordHash(identity, password, makeSalt())
}

func makePasswordHash(identity, password, salt string) string {
	digest := sha256.Sum256([]byte(identity + password + salt))
	return salt + "," + hex.EncodeToString(digest[:])
}

// CheckPassword recomputes the stored hash from its embedded salt and
// compares for exact equality.
func CheckPassword(identity, password, storedHash string) bool {
	salt, _, ok := strings.Cut(storedHash, ",")
	if !ok {
		return false
	}
	return storedHash == makePasswordHash(identity, password, salt)
}

func makeSalt() string {
	return randomString(saltLength, saltAlphabet)
}

// NewStateToken returns a fresh anti-forgery token.
func NewStateToken() string {
	return randomString(stateTokenLength, stateAlphabet)
}

// NewTempPassword returns the throwaway password embedded in reset
// links.
func NewTempPassword() string {
	return randomString(tempPasswordLength, saltAlphabet)
}

func randomString(length int, alphabet string) string {
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform source is broken;
			// there is no sensible recovery.
			panic("security: random source unavailable: " + err.Error())
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}

// Signer produces and verifies "{value}|{hmac_hex}" tokens keyed on
// the process-wide session secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(value string) string {
	return value + "|" + s.signature(value)
}

// Unsign extracts the value from a signed token. Malformed or tampered
// tokens yield ok=false, never an error: callers treat that the same
// as an absent token.
func (s *Signer) Unsign(token string) (string, bool) {
	value, sig, found := strings.Cut(token, "|")
	if !found {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.signature(value))) {
		return "", false
	}
	return value, true
}

func (s *Signer) signature(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
