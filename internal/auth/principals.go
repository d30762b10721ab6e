package auth

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type principalsFile struct {
	Principals []Record `yaml:"principals"`
}

// LoadRecords reads a YAML credential table from path.
func LoadRecords(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read principals: %w", err)
	}
	return ParseRecords(raw)
}

// ParseRecords decodes a YAML credential table. Unknown keys are rejected.
func ParseRecords(raw []byte) ([]Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var file principalsFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("auth: parse principals: %w", err)
	}
	if len(file.Principals) == 0 {
		return nil, fmt.Errorf("auth: parse principals: no principals defined")
	}
	return file.Principals, nil
}

// HashSecret returns the bcrypt hash of secret. A cost of zero uses
// bcrypt.DefaultCost.
func HashSecret(secret string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash secret: %w", err)
	}
	return string(hash), nil
}

// DemoRecords returns the development principals: sarah1 and kumar2 own
// cards, hank-owns-no-cards does not.
func DemoRecords(cost int) ([]Record, error) {
	demo := []struct{ username, secret, role string }{
		{"sarah1", "abc123", RoleCardOwner},
		{"hank-owns-no-cards", "qrs456", RoleNonOwner},
		{"kumar2", "xyz789", RoleCardOwner},
	}
	records := make([]Record, 0, len(demo))
	for _, d := range demo {
		hash, err := HashSecret(d.secret, cost)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{Username: d.username, PasswordHash: hash, Role: d.role})
	}
	return records, nil
}
