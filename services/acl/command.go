package acl

import (
	"fmt"
	"strconv"

	"relay-policyd/pkg/errutil"
	"relay-policyd/pkg/nostr"
)

// Command is the closed set of administrative mutations. Each variant
// carries its own validated parameters, so dispatch is an exhaustive type
// switch rather than a string comparison, and adding a command is a
// compile-time-checked change.
type Command interface {
	commandName() string
}

type BanPubkey struct {
	Pubkey string
	Reason string
}

type AllowPubkey struct {
	Pubkey string
	Reason string
}

type UnallowPubkey struct {
	Pubkey string
}

type ListBannedPubkeys struct{}

type ListAllowedPubkeys struct{}

type AllowKind struct {
	Kind int
}

type DisallowKind struct {
	Kind int
}

type ListAllowedKinds struct{}

type ChangeRelayDescription struct {
	Description string
}

type ChangeRelayIcon struct {
	Icon string
}

type BanEvent struct {
	EventID string
	Reason  string
}

type SupportedMethods struct{}

func (BanPubkey) commandName() string              { return "banpubkey" }
func (AllowPubkey) commandName() string            { return "allowpubkey" }
func (UnallowPubkey) commandName() string          { return "unallowpubkey" }
func (ListBannedPubkeys) commandName() string      { return "listbannedpubkeys" }
func (ListAllowedPubkeys) commandName() string     { return "listallowedpubkeys" }
func (AllowKind) commandName() string              { return "allowkind" }
func (DisallowKind) commandName() string           { return "disallowkind" }
func (ListAllowedKinds) commandName() string       { return "listallowedkinds" }
func (ChangeRelayDescription) commandName() string { return "changerelaydescription" }
func (ChangeRelayIcon) commandName() string        { return "changerelayicon" }
func (BanEvent) commandName() string               { return "banevent" }
func (SupportedMethods) commandName() string       { return "supportedmethods" }

// Methods is the static capability list advertised to remote daemons for
// feature detection.
var Methods = []string{
	"banpubkey",
	"allowpubkey",
	"unallowpubkey",
	"listbannedpubkeys",
	"listallowedpubkeys",
	"allowkind",
	"disallowkind",
	"listallowedkinds",
	"changerelaydescription",
	"changerelayicon",
	"banevent",
	"supportedmethods",
}

// ParseCommand maps a wire (name, ordered params) pair onto a typed
// command. Unknown names are bad_request; missing or malformed parameters
// are validation_failed. All parameter validation happens here, before any
// store access.
func ParseCommand(name string, params []string) (Command, error) {
	switch name {
	case "banpubkey":
		pubkey, reason, err := pubkeyParams(name, params)
		if err != nil {
			return nil, err
		}
		return BanPubkey{Pubkey: pubkey, Reason: reason}, nil

	case "allowpubkey":
		pubkey, reason, err := pubkeyParams(name, params)
		if err != nil {
			return nil, err
		}
		return AllowPubkey{Pubkey: pubkey, Reason: reason}, nil

	case "unallowpubkey":
		pubkey, _, err := pubkeyParams(name, params)
		if err != nil {
			return nil, err
		}
		return UnallowPubkey{Pubkey: pubkey}, nil

	case "listbannedpubkeys":
		return ListBannedPubkeys{}, nil

	case "listallowedpubkeys":
		return ListAllowedPubkeys{}, nil

	case "allowkind":
		kind, err := kindParam(name, params)
		if err != nil {
			return nil, err
		}
		return AllowKind{Kind: kind}, nil

	case "disallowkind":
		kind, err := kindParam(name, params)
		if err != nil {
			return nil, err
		}
		return DisallowKind{Kind: kind}, nil

	case "listallowedkinds":
		return ListAllowedKinds{}, nil

	case "changerelaydescription":
		if len(params) < 1 {
			return nil, errutil.ValidationFailed("changerelaydescription requires a description parameter")
		}
		return ChangeRelayDescription{Description: params[0]}, nil

	case "changerelayicon":
		if len(params) < 1 {
			return nil, errutil.ValidationFailed("changerelayicon requires an icon parameter")
		}
		return ChangeRelayIcon{Icon: params[0]}, nil

	case "banevent":
		if len(params) < 1 {
			return nil, errutil.ValidationFailed("banevent requires an event id parameter")
		}
		if !nostr.IsValidEventID(params[0]) {
			return nil, errutil.ValidationFailed("event id must be a 64-hex-char string")
		}
		reason := ""
		if len(params) > 1 {
			reason = params[1]
		}
		return BanEvent{EventID: params[0], Reason: reason}, nil

	case "supportedmethods":
		return SupportedMethods{}, nil

	default:
		return nil, errutil.BadRequest(fmt.Sprintf("unknown command %q", name))
	}
}

func pubkeyParams(name string, params []string) (pubkey, reason string, err error) {
	if len(params) < 1 {
		return "", "", errutil.ValidationFailed(name + " requires a pubkey parameter")
	}
	if !nostr.IsValidPubkey(params[0]) {
		return "", "", errutil.ValidationFailed("pubkey must be exactly 64 lowercase hex characters")
	}
	if len(params) > 1 {
		reason = params[1]
	}
	return params[0], reason, nil
}

func kindParam(name string, params []string) (int, error) {
	if len(params) < 1 {
		return 0, errutil.ValidationFailed(name + " requires a kind parameter")
	}
	kind, err := strconv.Atoi(params[0])
	if err != nil || kind < 0 {
		return 0, errutil.ValidationFailed("kind must be a non-negative integer")
	}
	return kind, nil
}
