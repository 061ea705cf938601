// Package archive stores immutable audit bundles for rating and stress-test
// results in S3-compatible object storage (AWS S3, Cloudflare R2, MinIO).
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Bundle kinds
const (
	KindRating     = "rating"
	KindStressTest = "stress_test"
)

// AuditBundle is everything needed to reproduce a stored result: the input
// snapshot, its digest and the result as returned to the caller.
type AuditBundle struct {
	Kind      string    `msgpack:"kind"`
	ID        string    `msgpack:"id"`
	CreatedAt time.Time `msgpack:"created_at"`
	Digest    string    `msgpack:"digest"`
	Snapshot  []byte    `msgpack:"snapshot"`
	Result    []byte    `msgpack:"result"`
}

// NewBundle JSON-encodes the snapshot and result and digests the snapshot.
// Map keys are sorted by encoding/json, so equal snapshots give equal digests.
func NewBundle(kind, id string, at time.Time, snapshot, result any) (AuditBundle, error) {
	snap, err := json.Marshal(snapshot)
	if err != nil {
		return AuditBundle{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	res, err := json.Marshal(result)
	if err != nil {
		return AuditBundle{}, fmt.Errorf("failed to encode result: %w", err)
	}
	return AuditBundle{
		Kind:      kind,
		ID:        id,
		CreatedAt: at.UTC(),
		Digest:    Digest(snap),
		Snapshot:  snap,
		Result:    res,
	}, nil
}

// Digest returns "sha256:<hex>" for data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Archiver persists audit bundles.
type Archiver interface {
	Archive(ctx context.Context, b AuditBundle) error
}

// NoopArchiver discards bundles. Used when no bucket is configured.
type NoopArchiver struct{}

// Archive implements Archiver.
func (NoopArchiver) Archive(context.Context, AuditBundle) error { return nil }

// Encode serialises a bundle with msgpack.
func Encode(b AuditBundle) ([]byte, error) {
	data, err := msgpack.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit bundle: %w", err)
	}
	return data, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (AuditBundle, error) {
	var b AuditBundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return AuditBundle{}, fmt.Errorf("failed to decode audit bundle: %w", err)
	}
	return b, nil
}

// ObjectKey returns <prefix>/<kind>/<yyyy>/<mm>/<id>.msgpack, using the
// bundle's UTC creation month. An empty prefix is omitted.
func ObjectKey(prefix string, b AuditBundle) string {
	t := b.CreatedAt.UTC()
	key := fmt.Sprintf("%s/%04d/%02d/%s.msgpack", b.Kind, t.Year(), int(t.Month()), b.ID)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
