// Package datasource abstracts where the raw survey bytes come from.
package datasource

import (
	"context"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

// Source opens the raw input for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the input in logs (a path or URL).
	Name() string
}

// Payload is the fully read input of a run.
type Payload struct {
	Name string
	Data []byte
	// Fingerprint is the xxh3 hash of Data in hex; identical inputs produce
	// identical fingerprints across runs.
	Fingerprint string
}

// Size returns len(Data).
func (p Payload) Size() int { return len(p.Data) }

// Fingerprint hashes b with xxh3.
func Fingerprint(b []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}

// ReadAll opens src, reads it to the end and fingerprints the content.
// The dataset is small, so the whole file is kept in memory.
func ReadAll(ctx context.Context, src Source) (Payload, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return Payload{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Payload{}, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	return Payload{Name: src.Name(), Data: data, Fingerprint: Fingerprint(data)}, nil
}
