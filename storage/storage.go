// Package storage implements the container format: a set of blocks keyed by
// type (written out in no defined order) that serializes to and parses from
// the "sqrldata"/"SQRLDATA" envelope, plus the adapter contract an embedder uses to fetch and persist
// that envelope from a URI. It is a port of libsqrl's SqrlStorage (see
// block.cpp / SqrlBlock.h and storage.cpp in the reference sources).
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"

	"sqrlcore/block"
)

var (
	// ErrMalformedEnvelope is returned by Load when the first 8 bytes are
	// neither signature.
	ErrMalformedEnvelope = errors.New("storage: malformed envelope signature")
	// ErrMalformedBlock is returned by Load when a block's length field
	// overruns the remaining input.
	ErrMalformedBlock = errors.New("storage: malformed block length")
)

const (
	binarySignature = "sqrldata"
	base64Signature = "SQRLDATA"
	signatureLen    = 8
)

// ExportType selects which blocks Save emits.
type ExportType int

const (
	// ExportAll emits every in-memory block.
	ExportAll ExportType = iota
	// ExportRescue emits only the rescue block (type 2).
	ExportRescue
)

// Encoding selects the outer envelope Save wraps the payload in.
type Encoding int

const (
	// EncodingBinary emits the raw concatenation of blocks behind the
	// "sqrldata" signature.
	EncodingBinary Encoding = iota
	// EncodingBase64 emits the base64url-without-padding encoding of the
	// payload behind the "SQRLDATA" signature.
	EncodingBase64
)

const rescueBlockType = 2

// Storage is a logical set of blocks keyed by type. At most one block of
// each type is present at a time.
type Storage struct {
	blocks map[uint16]*block.Block
}

// New returns an empty container.
func New() *Storage {
	return &Storage{blocks: make(map[uint16]*block.Block)}
}

// Has reports whether a block of the given type is present.
func (s *Storage) Has(typ uint16) bool {
	_, ok := s.blocks[typ]
	return ok
}

// Get returns the block of the given type, or nil if absent.
func (s *Storage) Get(typ uint16) *block.Block {
	return s.blocks[typ]
}

// Put inserts b, replacing any existing block of the same type.
func (s *Storage) Put(b *block.Block) {
	s.blocks[b.Type()] = b
}

// Remove deletes the block of the given type, if any.
func (s *Storage) Remove(typ uint16) {
	delete(s.blocks, typ)
}

// Load parses raw into a fresh set of blocks, replacing the storage's
// current contents on success. The container is well-formed iff the
// concatenation of block payloads exactly consumes the decoded bytes.
func (s *Storage) Load(raw []byte) error {
	payload, err := decodeEnvelope(raw)
	if err != nil {
		return err
	}

	blocks := make(map[uint16]*block.Block)
	offset := 0
	for offset < len(payload) {
		remaining := payload[offset:]
		if len(remaining) < block.HeaderSize {
			return ErrMalformedBlock
		}
		length := binary.LittleEndian.Uint16(remaining[0:2])
		if length == 0 || int(length) > len(remaining) {
			return ErrMalformedBlock
		}
		b, err := block.FromBytes(remaining[:length])
		if err != nil {
			return err
		}
		blocks[b.Type()] = b
		offset += int(length)
	}
	s.blocks = blocks
	return nil
}

// LoadFromURI fetches raw bytes via adapter and parses them.
func (s *Storage) LoadFromURI(ctx context.Context, adapter URIAdapter, uri string) error {
	raw, err := adapter.Load(ctx, uri)
	if err != nil {
		return err
	}
	return s.Load(raw)
}

// Save serializes the selected blocks under the selected envelope.
func (s *Storage) Save(export ExportType, encoding Encoding) []byte {
	payload := s.payload(export)
	switch encoding {
	case EncodingBase64:
		out := make([]byte, 0, signatureLen+base64.RawURLEncoding.EncodedLen(len(payload)))
		out = append(out, base64Signature...)
		encoded := base64.RawURLEncoding.EncodeToString(payload)
		return append(out, encoded...)
	default:
		out := make([]byte, 0, signatureLen+len(payload))
		out = append(out, binarySignature...)
		return append(out, payload...)
	}
}

// SaveToURI serializes and persists the selected blocks via adapter.
func (s *Storage) SaveToURI(ctx context.Context, adapter URIAdapter, uri string, export ExportType, encoding Encoding) error {
	return adapter.Save(ctx, uri, s.Save(export, encoding))
}

func (s *Storage) payload(export ExportType) []byte {
	var out []byte
	for typ, b := range s.blocks {
		if export == ExportRescue && typ != rescueBlockType {
			continue
		}
		out = append(out, b.Serialize()...)
	}
	return out
}

// UniqueID computes the container identifier: SHA-256 of the serialized
// bytes of the block of type 0, base64url-without-padding (43 characters).
// It is the empty string if no type-0 block exists.
func (s *Storage) UniqueID() string {
	b, ok := s.blocks[0]
	if !ok {
		return ""
	}
	sum := sha256.Sum256(b.Serialize())
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func decodeEnvelope(raw []byte) ([]byte, error) {
	if len(raw) < signatureLen {
		return nil, ErrMalformedEnvelope
	}
	sig := string(raw[:signatureLen])
	body := raw[signatureLen:]
	switch sig {
	case binarySignature:
		return body, nil
	case base64Signature:
		decoded, err := base64.RawURLEncoding.DecodeString(string(body))
		if err != nil {
			return nil, ErrMalformedEnvelope
		}
		return decoded, nil
	default:
		return nil, ErrMalformedEnvelope
	}
}
