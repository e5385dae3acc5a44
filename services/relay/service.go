package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relay-policyd/pkg/db/option"
	"relay-policyd/pkg/errutil"
	"relay-policyd/pkg/repository"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the policy store adapter for relay records and everything
// scoped to them.
type Service struct {
	db   *gorm.DB
	repo repository.Repository[Relay]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		repo: repository.ProvideStore[Relay](p.DB),
	}
}

// policyPreloads pulls in everything a policy decision reads: owner,
// moderators with their users, and both lists with all entry collections.
func policyPreloads() []option.QueryOption {
	return []option.QueryOption{
		option.WithPreload("Owner"),
		option.WithPreload("Moderators.User"),
		option.WithPreload("AllowList.Pubkeys"),
		option.WithPreload("AllowList.Keywords"),
		option.WithPreload("AllowList.Kinds"),
		option.WithPreload("BlockList.Pubkeys"),
		option.WithPreload("BlockList.Keywords"),
		option.WithPreload("BlockList.Kinds"),
	}
}

// Get returns the relay with its full policy graph, or nil when absent.
func (s *Service) Get(ctx context.Context, id string) (*Relay, error) {
	return s.repo.FindOne(ctx, &Relay{ID: id}, policyPreloads()...)
}

// FindByHostname resolves the relay a connecting client addressed.
// External relays match on the full hostname; platform relays match on
// (name, domain) after splitting off the first label. Returns nil when no
// relay matches, which callers must keep distinct from unauthorized.
func (s *Service) FindByHostname(ctx context.Context, hostname string) (*Relay, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return nil, nil
	}

	external, err := s.repo.FindOne(ctx, &Relay{Domain: hostname, IsExternal: true}, policyPreloads()...)
	if err != nil {
		return nil, err
	}
	if external != nil {
		return external, nil
	}

	sub, domain, found := strings.Cut(hostname, ".")
	if !found || sub == "" || domain == "" {
		return nil, nil
	}

	return s.repo.FindOne(ctx, &Relay{Name: sub, Domain: domain}, policyPreloads()...)
}

// UpdateDescription sets the relay's human-readable description.
func (s *Service) UpdateDescription(ctx context.Context, id, description string) error {
	return s.updateField(ctx, id, "description", description)
}

// UpdateIcon sets the relay's icon URL.
func (s *Service) UpdateIcon(ctx context.Context, id, icon string) error {
	return s.updateField(ctx, id, "icon", icon)
}

func (s *Service) updateField(ctx context.Context, id, column string, value string) error {
	if err := s.repo.Update(ctx, id, map[string]any{column: value}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("relay not found")
		}
		return errutil.Internal(fmt.Sprintf("failed to update relay %s", column), errutil.WithErr(err))
	}
	return nil
}

// Delete removes the relay and every record scoped to it in one atomic
// unit: list entries, both lists, moderators, acl sources, orders and
// streams, then the relay row. A crash mid-cascade never leaves orphans.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindOne(ctx, &Relay{ID: id})
	if err != nil {
		return errutil.Internal("failed to load relay", errutil.WithErr(err))
	}
	if existing == nil {
		return errutil.NotFound("relay not found")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var allowIDs, blockIDs []string
		if err := tx.Model(&AllowList{}).Where("relay_id = ?", id).Pluck("id", &allowIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&BlockList{}).Where("relay_id = ?", id).Pluck("id", &blockIDs).Error; err != nil {
			return err
		}

		for _, entry := range []any{&ListPubkey{}, &ListKeyword{}, &ListKind{}} {
			if len(allowIDs) > 0 {
				if err := tx.Where("allow_list_id IN ?", allowIDs).Delete(entry).Error; err != nil {
					return err
				}
			}
			if len(blockIDs) > 0 {
				if err := tx.Where("block_list_id IN ?", blockIDs).Delete(entry).Error; err != nil {
					return err
				}
			}
		}

		for _, scoped := range []any{&AllowList{}, &BlockList{}, &Moderator{}, &AclSource{}, &Order{}, &Stream{}} {
			if err := tx.Where("relay_id = ?", id).Delete(scoped).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).Delete(&Relay{}).Error
	})
	if err != nil {
		zap.L().Error("relay deletion cascade failed", zap.String("relay_id", id), zap.Error(err))
		return errutil.Internal("failed to delete relay", errutil.WithErr(err))
	}

	zap.L().Info("relay deleted", zap.String("relay_id", id))
	return nil
}
