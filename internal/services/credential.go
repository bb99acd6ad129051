package services

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
	pbkdf2SaltLen    = 16

	credentialSeparator = ":"

	// LegacyCredentialMarker is what seeded accounts store before their first
	// login. Any stored value that is not in the hashed format is legacy.
	LegacyCredentialMarker = "legacy"
)

// legacyCredentials is the fixed table of seeded test accounts. A legacy
// credential can only be verified against this table.
var legacyCredentials = map[string]string{
	"standard_user": "standard123",
	"locked_user":   "locked123",
	"admin":         "admin123",
}

// CredentialFormat tags how a stored credential must be verified.
type CredentialFormat int

const (
	CredentialLegacy CredentialFormat = iota
	CredentialHashed
)

func (f CredentialFormat) String() string {
	if f == CredentialHashed {
		return "hashed"
	}
	return "legacy"
}

// Credential is a parsed stored password credential.
type Credential struct {
	Format CredentialFormat
	salt   []byte
	key    []byte
}

// ParseCredential inspects the stored string: "<salt hex>:<key hex>" with the
// expected lengths is hashed, everything else is legacy.
func ParseCredential(stored string) Credential {
	saltHex, keyHex, ok := strings.Cut(stored, credentialSeparator)
	if !ok || strings.Contains(keyHex, credentialSeparator) {
		return Credential{Format: CredentialLegacy}
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != pbkdf2SaltLen {
		return Credential{Format: CredentialLegacy}
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != pbkdf2KeyLen {
		return Credential{Format: CredentialLegacy}
	}
	return Credential{Format: CredentialHashed, salt: salt, key: key}
}

// Verify checks password for username against the credential.
func (c Credential) Verify(username, password string) bool {
	switch c.Format {
	case CredentialHashed:
		derived := deriveKey(password, c.salt)
		return subtle.ConstantTimeCompare(derived, c.key) == 1
	default:
		expected, ok := legacyCredentials[username]
		if !ok {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
	}
}

// HashPassword returns password in the hashed credential format with a fresh salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := deriveKey(password, salt)
	return hex.EncodeToString(salt) + credentialSeparator + hex.EncodeToString(key), nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
}
