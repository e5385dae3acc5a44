package nostr

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// NpubPrefix is the bech32 human readable part for public keys.
const NpubPrefix = "npub"

var (
	pubkeyRe  = regexp.MustCompile(`^[0-9a-f]{64}$`)
	eventIDRe = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// IsValidPubkey reports whether s is exactly 64 lowercase hex characters,
// the only pubkey form accepted on command parameters.
func IsValidPubkey(s string) bool {
	return pubkeyRe.MatchString(s)
}

// IsValidEventID reports whether s is a 64-hex-char event identifier.
func IsValidEventID(s string) bool {
	return eventIDRe.MatchString(s)
}

// NpubToHex decodes a bech32 npub into its 64-char lowercase hex form.
func NpubToHex(npub string) (string, error) {
	hrp, data, err := bech32.Decode(npub)
	if err != nil {
		return "", fmt.Errorf("decode npub: %w", err)
	}
	if hrp != NpubPrefix {
		return "", fmt.Errorf("unexpected bech32 prefix %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("convert npub payload: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("npub payload is %d bytes, want 32", len(raw))
	}
	return hex.EncodeToString(raw), nil
}

// HexToNpub encodes a 64-char hex pubkey as a bech32 npub.
func HexToNpub(pk string) (string, error) {
	raw, err := hex.DecodeString(pk)
	if err != nil {
		return "", fmt.Errorf("decode hex pubkey: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("pubkey is %d bytes, want 32", len(raw))
	}
	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert pubkey payload: %w", err)
	}
	return bech32.Encode(NpubPrefix, data)
}

// NormalizePubkey reconciles the two accepted encodings of the same key.
// npub input is decoded; hex input is lowercased and validated. Every
// comparison site in the policy subsystem goes through here rather than
// re-deriving the alternate encoding.
func NormalizePubkey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, NpubPrefix) {
		return NpubToHex(s)
	}
	s = strings.ToLower(s)
	if !IsValidPubkey(s) {
		return "", fmt.Errorf("pubkey %q is neither 64-char hex nor npub", s)
	}
	return s, nil
}
