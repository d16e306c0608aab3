package pii

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// VaultRepo is the storage surface pkg/database's PIIVaultRepo provides.
type VaultRepo interface {
	Put(ctx context.Context, e *models.PIIVaultEntry) error
	Get(ctx context.Context, tc database.TenantContext, token string) (*models.PIIVaultEntry, error)
}

// Vault mints opaque tokens for detected PII and stores the original
// value AES-256-GCM-encrypted, keyed by that token.
type Vault struct {
	repo        VaultRepo
	aead        cipher.AEAD
	tokenPrefix string
}

// NewVault derives a 256-bit AEAD key from rawSecret via HKDF-SHA256
// (rawSecret need not already be exactly 32 bytes) and builds a vault
// that mints tokens under tokenPrefix.
func NewVault(repo VaultRepo, rawSecret []byte, tokenPrefix string) (*Vault, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, rawSecret, nil, []byte("benchsales-match-pii-vault"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, apperr.Fatal("derive pii vault key", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Fatal("build aes cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.Fatal("build gcm aead", err)
	}

	return &Vault{repo: repo, aead: gcm, tokenPrefix: tokenPrefix}, nil
}

// Tokenize mints a token for a finding's value, encrypts it, and
// persists it to the vault, returning the token to splice into text as
// `{{token}}` in the form `{tokenPrefix}:{type}:{hex(random6)}`.
func (v *Vault) Tokenize(ctx context.Context, tenantID string, piiType models.PIIType, value string) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", apperr.Fatal("generate token suffix", err)
	}
	token := fmt.Sprintf("%s:%s:%s", v.tokenPrefix, piiType, hex.EncodeToString(suffix))

	ciphertext, err := v.encrypt([]byte(value))
	if err != nil {
		return "", err
	}

	if err := v.repo.Put(ctx, &models.PIIVaultEntry{
		Token:      token,
		TenantID:   tenantID,
		Type:       piiType,
		Ciphertext: ciphertext,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve decrypts the original value behind a token, scoped to tc's tenant.
func (v *Vault) Resolve(ctx context.Context, tc database.TenantContext, token string) (string, error) {
	entry, err := v.repo.Get(ctx, tc, token)
	if err != nil {
		return "", err
	}
	plain, err := v.decrypt(entry.Ciphertext)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// encrypt produces iv‖ciphertext‖tag via AES-256-GCM: the nonce/iv is
// prefixed so Resolve can recover it, followed by the GCM seal output
// as is, with the authentication tag after the ciphertext (the tag is
// not moved ahead of the ciphertext).
func (v *Vault) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, apperr.Fatal("generate nonce", err)
	}
	sealed := v.aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

func (v *Vault) decrypt(data []byte) ([]byte, error) {
	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, apperr.New(apperr.KindIntegrity, "vault ciphertext shorter than nonce")
	}
	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plain, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIntegrity, "decrypt vault entry", err)
	}
	return plain, nil
}
