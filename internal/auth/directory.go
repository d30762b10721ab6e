package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	hash []byte
	role string
}

// Directory is an immutable credential table built once at startup.
type Directory struct {
	entries map[string]entry
	// dummy is compared for unknown usernames so they cost the same as a
	// wrong secret.
	dummy  []byte
	flight singleflight.Group
}

// NewDirectory validates records and builds a Directory. Usernames must be
// unique and every hash must be a bcrypt hash.
func NewDirectory(records []Record) (*Directory, error) {
	entries := make(map[string]entry, len(records))
	cost := 0
	for i, rec := range records {
		username := strings.TrimSpace(rec.Username)
		if username == "" {
			return nil, fmt.Errorf("auth: principal %d: username required", i)
		}
		if _, dup := entries[username]; dup {
			return nil, fmt.Errorf("auth: principal %q: duplicate username", username)
		}
		if strings.TrimSpace(rec.Role) == "" {
			return nil, fmt.Errorf("auth: principal %q: role required", username)
		}
		hashCost, err := bcrypt.Cost([]byte(rec.PasswordHash))
		if err != nil {
			return nil, fmt.Errorf("auth: principal %q: %w", username, err)
		}
		if hashCost > cost {
			cost = hashCost
		}
		entries[username] = entry{hash: []byte(rec.PasswordHash), role: normalizeRole(rec.Role)}
	}

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("auth: dummy secret: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(seed)), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash: %w", err)
	}
	return &Directory{entries: entries, dummy: dummy}, nil
}

// Len returns the number of provisioned principals.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Verify checks username and secret. Concurrent identical checks share a
// single bcrypt comparison.
func (d *Directory) Verify(ctx context.Context, username, secret string) (Principal, error) {
	key := flightKey(username, secret)
	resultChan := d.flight.DoChan(key, func() (interface{}, error) {
		return d.verify(username, secret)
	})
	select {
	case <-ctx.Done():
		return Principal{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Principal{}, res.Err
		}
		return res.Val.(Principal), nil
	}
}

func (d *Directory) verify(username, secret string) (Principal, error) {
	e, ok := d.entries[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(secret))
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(e.hash, []byte(secret)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Username: username, Role: e.role}, nil
}

func flightKey(username, secret string) string {
	sum := sha256.Sum256([]byte(username + "\x00" + secret))
	return hex.EncodeToString(sum[:])
}
