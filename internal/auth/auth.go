// Package auth resolves bearer tokens to tenants through hashed API keys.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/chainledger/internal/repository"
)

var (
	// ErrUnauthorized indicates an unknown or empty token.
	ErrUnauthorized = errors.New("unauthorized")
)

// KeyStore looks up and registers API key hashes.
type KeyStore interface {
	Add(ctx context.Context, keyHash, tenantID, description string) error
	TenantForHash(ctx context.Context, keyHash string) (string, error)
}

// Resolver maps bearer tokens to tenant IDs. Only SHA-256 hashes of tokens are stored.
type Resolver struct {
	keys KeyStore
}

// NewResolver creates a Resolver over keys.
func NewResolver(keys KeyStore) *Resolver {
	return &Resolver{keys: keys}
}

// ResolveTenant returns the tenant owning token.
func (r *Resolver) ResolveTenant(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}
	tenantID, err := r.keys.TenantForHash(ctx, HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("resolve tenant: %w", err)
	}
	if tenantID == "" {
		return "", ErrUnauthorized
	}
	return tenantID, nil
}

// Register stores token for tenantID.
func (r *Resolver) Register(ctx context.Context, token, tenantID, description string) error {
	token = strings.TrimSpace(token)
	if token == "" || tenantID == "" {
		return fmt.Errorf("register api key: token and tenant are required")
	}
	if err := r.keys.Add(ctx, HashToken(token), tenantID, description); err != nil {
		return fmt.Errorf("register api key: %w", err)
	}
	return nil
}

// HashToken returns the hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
