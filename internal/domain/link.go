package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FailureKind tags why a login link was rejected.
type FailureKind string

const (
	InvalidLink FailureKind = "INVALID_LINK"
	InvalidUser FailureKind = "INVALID_USER"
	InvalidAuth FailureKind = "INVALID_AUTH"
)

// MagicRecord is what the record store holds for one public token.
// Private is a one-way hash of the link signature, never the signature itself.
type MagicRecord struct {
	UserID   string `json:"user"`
	Private  string `json:"private"`
	Redirect string `json:"redirect"`
	Time     int64  `json:"time"`
}

func NewMagicRecord(userID, private, redirect string, now time.Time) *MagicRecord {
	return &MagicRecord{
		UserID:   userID,
		Private:  private,
		Redirect: redirect,
		Time:     now.Unix(),
	}
}

func (r *MagicRecord) IssuedAt() time.Time {
	return time.Unix(r.Time, 0)
}

func (r *MagicRecord) Encode() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode magic record: %w", err)
	}
	return b, nil
}

// DecodeMagicRecord parses a stored record. It only fails on malformed JSON;
// callers check UserID and Private themselves so they can pick the failure kind.
func DecodeMagicRecord(b []byte) (*MagicRecord, error) {
	var r MagicRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode magic record: %w", err)
	}
	return &r, nil
}

// Settings is the durable per-deployment option, created once at install.
type Settings struct {
	Endpoint string `json:"endpoint"`
}
