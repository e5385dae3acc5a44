package authz

import (
	"context"

	"relay-policyd/pkg/errutil"
	"relay-policyd/pkg/nostr"
	"relay-policyd/services/relay"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Verdict is the outcome of a write-authorization check. Full and partial
// grants are distinct because callers apply different event-kind filtering
// to partial ones.
type Verdict string

var (
	VerdictNotFound          Verdict = "not_found"
	VerdictUnauthorized      Verdict = "unauthorized"
	VerdictAuthorized        Verdict = "authorized"
	VerdictAuthorizedPartial Verdict = "authorized_partial"
)

func (v Verdict) String() string {
	switch v {
	case VerdictNotFound, VerdictUnauthorized, VerdictAuthorized, VerdictAuthorizedPartial:
		return string(v)
	default:
		return ""
	}
}

// Allowed reports whether the verdict grants any level of write access.
func (v Verdict) Allowed() bool {
	return v == VerdictAuthorized || v == VerdictAuthorizedPartial
}

// Service composes owner, moderator, super-admin and list checks into the
// two decision flows: administration authority and write authorization.
// Every decision re-reads current policy rows, so mutations take effect on
// the next check with no staleness window.
type Service struct {
	db     *gorm.DB
	relays *relay.Service
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Relays *relay.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		relays: p.Relays,
	}
}

// CanAdminister decides administration authority over a relay: ownership or
// an explicit moderator grant, nothing else. Platform super-admins get no
// shortcut here.
func (s *Service) CanAdminister(ctx context.Context, relayID, pubkey string) (bool, error) {
	r, err := s.relays.Get(ctx, relayID)
	if err != nil {
		return false, errutil.Internal("failed to load relay", errutil.WithErr(err))
	}
	if r == nil {
		return false, errutil.NotFound("relay not found")
	}
	return IsOwnerOrModerator(r, pubkey), nil
}

// IsOwnerOrModerator is the pure core of the administration-authority
// check, usable by callers that already hold the loaded relay.
func IsOwnerOrModerator(r *relay.Relay, pubkey string) bool {
	requester, err := nostr.NormalizePubkey(pubkey)
	if err != nil {
		return false
	}
	if r.Owner != nil && pubkeyMatches(r.Owner.Pubkey, requester) {
		return true
	}
	for _, m := range r.Moderators {
		if m.User != nil && pubkeyMatches(m.User.Pubkey, requester) {
			return true
		}
	}
	return false
}

// CheckWrite decides whether pubkey may publish to the relay addressed by
// hostname. The precedence order is fixed; the first matching rule wins.
func (s *Service) CheckWrite(ctx context.Context, hostname, pubkey string) (Verdict, error) {
	r, err := s.relays.FindByHostname(ctx, hostname)
	if err != nil {
		return VerdictUnauthorized, errutil.Internal("failed to resolve relay", errutil.WithErr(err))
	}
	if r == nil {
		return VerdictNotFound, nil
	}

	requester, err := nostr.NormalizePubkey(pubkey)
	if err != nil {
		return VerdictUnauthorized, nil
	}

	if r.IsExternal {
		if r.DefaultMessagePolicy {
			return VerdictAuthorized, nil
		}
		// External relays match allow-list entries exactly; the tagged-allow
		// exception does not apply to them.
		if r.AllowList != nil {
			for _, entry := range r.AllowList.Pubkeys {
				if entry.Pubkey == requester {
					return VerdictAuthorized, nil
				}
			}
		}
		return VerdictUnauthorized, nil
	}

	admin, err := s.isSuperAdmin(ctx, requester)
	if err != nil {
		return VerdictUnauthorized, errutil.Internal("failed to check super-admin", errutil.WithErr(err))
	}
	if admin {
		return VerdictAuthorized, nil
	}

	if r.DefaultMessagePolicy {
		return VerdictAuthorized, nil
	}

	if r.Owner != nil && pubkeyMatches(r.Owner.Pubkey, requester) {
		return VerdictAuthorized, nil
	}

	for _, m := range r.Moderators {
		if m.User != nil && pubkeyMatches(m.User.Pubkey, requester) {
			return VerdictAuthorized, nil
		}
	}

	if r.AllowList != nil {
		for _, entry := range r.AllowList.Pubkeys {
			if pubkeyMatches(entry.Pubkey, requester) {
				return VerdictAuthorized, nil
			}
		}
	}

	if r.AllowTagged {
		zap.L().Debug("granting tagged-only write",
			zap.String("relay_id", r.ID),
			zap.String("pubkey", requester),
		)
		return VerdictAuthorizedPartial, nil
	}

	return VerdictUnauthorized, nil
}

func (s *Service) isSuperAdmin(ctx context.Context, pubkey string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&relay.User{}).
		Where("pubkey = ? AND admin = ?", pubkey, true).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// pubkeyMatches compares a stored pubkey, which may be hex or npub, with an
// already-normalized requester key.
func pubkeyMatches(stored, requester string) bool {
	normalized, err := nostr.NormalizePubkey(stored)
	if err != nil {
		return false
	}
	return normalized == requester
}
