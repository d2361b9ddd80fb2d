package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IntegrationStore = (*IntegrationRepo)(nil)

// IntegrationRepo is the SQLite implementation of the IntegrationStore port.
// Access tokens are encrypted with AES-256-GCM before write and decrypted
// after read.
type IntegrationRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewIntegrationRepo creates a new IntegrationRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable credential storage (all operations will
// return ErrEncryptionKeyNotSet).
func NewIntegrationRepo(db *DB, key []byte) *IntegrationRepo {
	return &IntegrationRepo{db: db, key: key}
}

// Upsert stores or replaces the customer's credential. The token is
// plaintext on the way in and encrypted before it touches the database.
func (r *IntegrationRepo) Upsert(ctx context.Context, integ model.Integration) error {
	encrypted, err := r.encrypt(integ.Token)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO integrations (customer_id, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`
	updatedAt := integ.UpdatedAt.UTC().Format(time.RFC3339)
	if _, err := r.db.Writer.ExecContext(ctx, query, integ.CustomerID, encrypted, updatedAt); err != nil {
		return fmt.Errorf("upsert integration for customer %q: %w", integ.CustomerID, err)
	}
	return nil
}

// GetToken retrieves the customer's plaintext access token.
// Returns driven.ErrNotIntegrated if no credential is stored.
func (r *IntegrationRepo) GetToken(ctx context.Context, customerID string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT token FROM integrations WHERE customer_id = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, customerID).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", driven.ErrNotIntegrated
	}
	if err != nil {
		return "", fmt.Errorf("get integration for customer %q: %w", customerID, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt token for customer %q: %w", customerID, err)
	}
	return plaintext, nil
}

// Exists reports whether the customer has a stored credential.
func (r *IntegrationRepo) Exists(ctx context.Context, customerID string) (bool, error) {
	const query = `SELECT 1 FROM integrations WHERE customer_id = ?`
	var one int
	err := r.db.Reader.QueryRowContext(ctx, query, customerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check integration for customer %q: %w", customerID, err)
	}
	return true, nil
}

// Delete removes the customer's credential.
func (r *IntegrationRepo) Delete(ctx context.Context, customerID string) error {
	const query = `DELETE FROM integrations WHERE customer_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, customerID); err != nil {
		return fmt.Errorf("delete integration for customer %q: %w", customerID, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *IntegrationRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *IntegrationRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
