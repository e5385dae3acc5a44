package admin

import (
	"context"

	"relay-policyd/pkg/errutil"
	"relay-policyd/pkg/nip98"
	"relay-policyd/services/acl"
	"relay-policyd/services/authz"
	"relay-policyd/services/relay"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Request is one inbound administrative command: the signed credential, the
// request it was presented against, and the named command with its ordered
// parameters.
type Request struct {
	RelayID    string
	Credential string
	Method     string
	URL        string
	Command    string
	Params     []string
}

type Response struct {
	Result any `json:"result"`
}

// Service drives each request through the fixed progression
// unauthenticated, identity-recovered, authority-checked, executed. Every
// terminal failure carries a stable errutil code so daemons can tell
// "fix your request" from "you will never be authorized".
type Service struct {
	verifier *nip98.Verifier
	relays   *relay.Service
	authz    *authz.Service
	acl      *acl.Service
}

type ServiceParams struct {
	fx.In
	Verifier *nip98.Verifier
	Relays   *relay.Service
	Authz    *authz.Service
	ACL      *acl.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		verifier: p.Verifier,
		relays:   p.Relays,
		authz:    p.Authz,
		acl:      p.ACL,
	}
}

func (s *Service) Dispatch(ctx context.Context, req Request) (*Response, error) {
	pubkey, err := s.verifier.Authenticate(req.Credential, req.Method, req.URL)
	if err != nil {
		return nil, errutil.Unauthorized("authentication failed", errutil.WithErr(err))
	}

	r, err := s.relays.Get(ctx, req.RelayID)
	if err != nil {
		return nil, errutil.Internal("failed to load relay", errutil.WithErr(err))
	}
	if r == nil {
		return nil, errutil.NotFound("relay not found")
	}

	if !authz.IsOwnerOrModerator(r, pubkey) {
		zap.L().Warn("administrative command denied",
			zap.String("relay_id", req.RelayID),
			zap.String("pubkey", pubkey),
			zap.String("command", req.Command),
		)
		return nil, errutil.Forbidden("pubkey is neither owner nor moderator of this relay")
	}

	cmd, err := acl.ParseCommand(req.Command, req.Params)
	if err != nil {
		return nil, err
	}

	result, err := s.acl.Execute(ctx, req.RelayID, cmd)
	if err != nil {
		return nil, err
	}

	zap.L().Info("administrative command executed",
		zap.String("relay_id", req.RelayID),
		zap.String("pubkey", pubkey),
		zap.String("command", req.Command),
	)

	return &Response{Result: result}, nil
}
