package nostr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Key pair from the NIP-19 reference vectors.
const (
	refHex  = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	refNpub = "npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6"
)

func TestNpubToHex(t *testing.T) {
	got, err := NpubToHex(refNpub)
	require.NoError(t, err)
	require.Equal(t, refHex, got)
}

func TestHexToNpubRoundTrip(t *testing.T) {
	npub, err := HexToNpub(refHex)
	require.NoError(t, err)
	require.Equal(t, refNpub, npub)

	back, err := NpubToHex(npub)
	require.NoError(t, err)
	require.Equal(t, refHex, back)
}

func TestNpubToHexRejectsWrongPrefix(t *testing.T) {
	// Same payload re-encoded under a different prefix.
	_, err := NpubToHex("nsec" + strings.TrimPrefix(refNpub, "npub"))
	require.Error(t, err)
}

func TestNormalizePubkey(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "hex passthrough", in: refHex, want: refHex},
		{name: "uppercase hex lowered", in: strings.ToUpper(refHex), want: refHex},
		{name: "npub decoded", in: refNpub, want: refHex},
		{name: "padded input trimmed", in: "  " + refHex + "\n", want: refHex},
		{name: "short hex rejected", in: refHex[:40], wantErr: true},
		{name: "non-hex rejected", in: strings.Repeat("z", 64), wantErr: true},
		{name: "garbage npub rejected", in: "npub1qqqqqqqq", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePubkey(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestIsValidPubkey(t *testing.T) {
	require.True(t, IsValidPubkey(refHex))
	require.False(t, IsValidPubkey(strings.ToUpper(refHex)))
	require.False(t, IsValidPubkey(refHex[:63]))
	require.False(t, IsValidPubkey(refHex+"a"))
	require.False(t, IsValidPubkey(refNpub))
}

func TestIsValidEventID(t *testing.T) {
	require.True(t, IsValidEventID(refHex))
	require.False(t, IsValidEventID("not-64-hex"))
	require.False(t, IsValidEventID(""))
}
