package acl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"relay-policyd/pkg/errutil"
)

func TestParseCommandUnknown(t *testing.T) {
	_, err := ParseCommand("frobnicate", nil)
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.CodeOf(err))
}

func TestParseCommandPubkeyValidation(t *testing.T) {
	valid := strings.Repeat("a1", 32)

	for _, name := range []string{"banpubkey", "allowpubkey", "unallowpubkey"} {
		t.Run(name+" missing params", func(t *testing.T) {
			_, err := ParseCommand(name, nil)
			require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))
		})
		t.Run(name+" short pubkey", func(t *testing.T) {
			_, err := ParseCommand(name, []string{"abcd"})
			require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))
		})
		t.Run(name+" uppercase pubkey", func(t *testing.T) {
			_, err := ParseCommand(name, []string{strings.ToUpper(valid)})
			require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))
		})
		t.Run(name+" valid", func(t *testing.T) {
			_, err := ParseCommand(name, []string{valid})
			require.NoError(t, err)
		})
	}
}

func TestParseCommandCapturesReason(t *testing.T) {
	valid := strings.Repeat("a1", 32)

	cmd, err := ParseCommand("banpubkey", []string{valid, "spam"})
	require.NoError(t, err)
	require.Equal(t, BanPubkey{Pubkey: valid, Reason: "spam"}, cmd)

	cmd, err = ParseCommand("allowpubkey", []string{valid})
	require.NoError(t, err)
	require.Equal(t, AllowPubkey{Pubkey: valid}, cmd)
}

func TestParseCommandKindValidation(t *testing.T) {
	for _, name := range []string{"allowkind", "disallowkind"} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCommand(name, nil)
			require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))

			_, err = ParseCommand(name, []string{"seven"})
			require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))

			_, err = ParseCommand(name, []string{"-1"})
			require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))
		})
	}

	cmd, err := ParseCommand("allowkind", []string{"30023"})
	require.NoError(t, err)
	require.Equal(t, AllowKind{Kind: 30023}, cmd)
}

func TestParseCommandBanEvent(t *testing.T) {
	_, err := ParseCommand("banevent", nil)
	require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))

	_, err = ParseCommand("banevent", []string{"not-64-hex"})
	require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))

	eventID := strings.Repeat("c3", 32)
	cmd, err := ParseCommand("banevent", []string{eventID, "dmca"})
	require.NoError(t, err)
	require.Equal(t, BanEvent{EventID: eventID, Reason: "dmca"}, cmd)
}

func TestParseCommandNoParamVariants(t *testing.T) {
	cases := map[string]Command{
		"listbannedpubkeys":  ListBannedPubkeys{},
		"listallowedpubkeys": ListAllowedPubkeys{},
		"listallowedkinds":   ListAllowedKinds{},
		"supportedmethods":   SupportedMethods{},
	}
	for name, want := range cases {
		cmd, err := ParseCommand(name, nil)
		require.NoError(t, err)
		require.Equal(t, want, cmd)
	}
}

func TestParseCommandRelayFields(t *testing.T) {
	_, err := ParseCommand("changerelaydescription", nil)
	require.Equal(t, errutil.StatusValidationFailed, errutil.CodeOf(err))

	cmd, err := ParseCommand("changerelaydescription", []string{"hello"})
	require.NoError(t, err)
	require.Equal(t, ChangeRelayDescription{Description: "hello"}, cmd)

	cmd, err = ParseCommand("changerelayicon", []string{"https://cdn.example.com/icon.png"})
	require.NoError(t, err)
	require.Equal(t, ChangeRelayIcon{Icon: "https://cdn.example.com/icon.png"}, cmd)
}
