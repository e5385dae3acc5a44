package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// KindHTTPAuth is the event kind reserved for HTTP authorization envelopes.
const KindHTTPAuth = 27235

// Event is the wire-form signed event. Field order and naming follow the
// network serialization, so an event round-trips through encoding/json.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Digest computes the canonical event digest: the sha256 of the serialized
// array [0, pubkey, created_at, kind, tags, content].
func (e *Event) Digest() ([]byte, error) {
	tags := e.Tags
	if tags == nil {
		tags = [][]string{}
	}
	raw, err := json.Marshal([]interface{}{0, e.PubKey, e.CreatedAt, e.Kind, tags, e.Content})
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	sum := sha256.Sum256(raw)
	return sum[:], nil
}

// CheckSignature verifies that the embedded id is the digest of the event
// body and that the Schnorr signature over it is valid for the embedded
// x-only public key.
func (e *Event) CheckSignature() error {
	digest, err := e.Digest()
	if err != nil {
		return err
	}
	if hex.EncodeToString(digest) != e.ID {
		return errors.New("event id does not match serialized event digest")
	}

	pkBytes, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pkBytes) != 32 {
		return errors.New("event pubkey is not a 32-byte hex string")
	}
	pub, err := schnorr.ParsePubKey(pkBytes)
	if err != nil {
		return fmt.Errorf("parse event pubkey: %w", err)
	}

	sigBytes, err := hex.DecodeString(e.Sig)
	if err != nil || len(sigBytes) != 64 {
		return errors.New("event signature is not a 64-byte hex string")
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("parse event signature: %w", err)
	}

	if !sig.Verify(digest, pub) {
		return errors.New("signature verification failed")
	}
	return nil
}

// TagValue returns the value of the first tag with the given name, and
// whether such a tag exists.
func (e *Event) TagValue(name string) (string, bool) {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1], true
		}
	}
	return "", false
}
