package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// hashDomain separates snapshot hashes from every other SHA-256 use.
// The null byte prevents domain/payload boundary ambiguity.
const hashDomain = "pizzatorio/snapshot/v1"

// NewSessionID mints the identifier a fresh session is saved under.
func NewSessionID() string { return uuid.NewString() }

// Encode serializes a state to canonical JSON and returns the bytes
// together with their state hash.
//
// Canonical here means: struct field order (fixed by the schema), no
// HTML escaping, NFC-normalized text, single trailing newline
// stripped. json.Marshal already formats floats shortest-round-trip,
// so equal states encode to equal bytes.
func Encode(st *State) ([]byte, string, error) {
	if st.Version != Version {
		return nil, "", &SaveLoadError{Op: "encode", Reason: fmt.Sprintf("schema version %d, want %d", st.Version, Version)}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(st); err != nil {
		return nil, "", &SaveLoadError{Op: "encode", Reason: "marshal", Err: err}
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	data = norm.NFC.Bytes(data)
	return data, Hash(data), nil
}

// Decode parses snapshot bytes, rejecting unknown schema versions and
// malformed payloads.
func Decode(data []byte) (*State, error) {
	var st State
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		return nil, &SaveLoadError{Op: "decode", Reason: "corrupt payload", Err: err}
	}
	if st.Version != Version {
		return nil, &SaveLoadError{Op: "decode", Reason: fmt.Sprintf("unsupported schema version %d, want %d", st.Version, Version)}
	}
	return &st, nil
}

// Hash computes the domain-separated SHA-256 state hash of encoded
// snapshot bytes.
func Hash(data []byte) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify re-hashes data and compares against the recorded hash.
func Verify(data []byte, wantHash string) error {
	if got := Hash(data); got != wantHash {
		return &SaveLoadError{Op: "verify", Reason: fmt.Sprintf("state hash mismatch: stored %s, computed %s", wantHash, got)}
	}
	return nil
}
