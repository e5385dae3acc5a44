package acl

import (
	"context"
	"errors"

	"relay-policyd/pkg/errutil"
	"relay-policyd/pkg/nostr"
	"relay-policyd/pkg/task"
	"relay-policyd/services/moderation"
	"relay-policyd/services/relay"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PubkeyEntry is the wire shape of a list entry; Reason is always a string,
// never null.
type PubkeyEntry struct {
	Pubkey string `json:"pubkey"`
	Reason string `json:"reason"`
}

// Service applies administrative commands to a relay's policy lists. Every
// mutating command provisions the target list on demand before touching
// rows, so an insert never races a missing list.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	relays *relay.Service
	asynq  task.Enqueuer
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Relays *relay.Service
	Asynq  task.Enqueuer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		relays: p.Relays,
		asynq:  p.Asynq,
	}
}

// Execute runs one typed command against the relay. The switch is
// exhaustive over the closed command set.
func (s *Service) Execute(ctx context.Context, relayID string, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case BanPubkey:
		return s.banPubkey(ctx, relayID, c)
	case AllowPubkey:
		return s.allowPubkey(ctx, relayID, c)
	case UnallowPubkey:
		return s.unallowPubkey(ctx, relayID, c)
	case ListBannedPubkeys:
		return s.listPubkeys(ctx, relayID, false)
	case ListAllowedPubkeys:
		return s.listPubkeys(ctx, relayID, true)
	case AllowKind:
		return s.allowKind(ctx, relayID, c)
	case DisallowKind:
		return s.disallowKind(ctx, relayID, c)
	case ListAllowedKinds:
		return s.listAllowedKinds(ctx, relayID)
	case ChangeRelayDescription:
		if err := s.relays.UpdateDescription(ctx, relayID, c.Description); err != nil {
			return nil, err
		}
		return "ok", nil
	case ChangeRelayIcon:
		if err := s.relays.UpdateIcon(ctx, relayID, c.Icon); err != nil {
			return nil, err
		}
		return "ok", nil
	case BanEvent:
		return s.banEvent(ctx, relayID, c)
	case SupportedMethods:
		return Methods, nil
	default:
		return nil, errutil.BadRequest("unknown command")
	}
}

// ensureAllowList provisions the relay's allow list in one atomic store
// call: the insert is a no-op when a list already exists for the relay, so
// two concurrent first-mutations cannot create duplicates.
func (s *Service) ensureAllowList(ctx context.Context, relayID string) (*relay.AllowList, error) {
	candidate := relay.AllowList{ID: s.node.Generate().String(), RelayID: relayID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "relay_id"}},
			DoNothing: true,
		}).
		Create(&candidate).Error
	if err != nil {
		return nil, err
	}

	var list relay.AllowList
	if err := s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *Service) ensureBlockList(ctx context.Context, relayID string) (*relay.BlockList, error) {
	candidate := relay.BlockList{ID: s.node.Generate().String(), RelayID: relayID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "relay_id"}},
			DoNothing: true,
		}).
		Create(&candidate).Error
	if err != nil {
		return nil, err
	}

	var list relay.BlockList
	if err := s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// keyForms returns every stored encoding of a command pubkey. Command
// parameters are always hex, but rows written by dashboards may hold the
// npub form of the same key, and both must count as a match.
func keyForms(pubkey string) []string {
	forms := []string{pubkey}
	if npub, err := nostr.HexToNpub(pubkey); err == nil {
		forms = append(forms, npub)
	}
	return forms
}

// banPubkey inserts the block entry, evicts any matching allow entry, and
// fires the retroactive deletion job. The job is not awaited; its outcome
// never affects the command result.
func (s *Service) banPubkey(ctx context.Context, relayID string, c BanPubkey) (any, error) {
	list, err := s.ensureBlockList(ctx, relayID)
	if err != nil {
		return nil, errutil.Internal("failed to provision block list", errutil.WithErr(err))
	}

	var entry relay.ListPubkey
	err = s.db.WithContext(ctx).
		Where("block_list_id = ? AND pubkey IN ?", list.ID, keyForms(c.Pubkey)).
		Attrs(relay.ListPubkey{
			ID:          s.node.Generate().String(),
			BlockListID: &list.ID,
			Pubkey:      c.Pubkey,
			Reason:      c.Reason,
		}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return nil, errutil.Internal("failed to insert block entry", errutil.WithErr(err))
	}

	if err := s.evictFromAllowList(ctx, relayID, c.Pubkey); err != nil {
		return nil, err
	}

	if _, err := s.asynq.Enqueue(ctx, moderation.NewDeletePubkeyTask(moderation.DeletePubkeyPayload{
		RelayID: relayID,
		Pubkey:  c.Pubkey,
		Reason:  c.Reason,
	})); err != nil {
		zap.L().Error("failed to enqueue pubkey deletion job",
			zap.String("relay_id", relayID),
			zap.String("pubkey", c.Pubkey),
			zap.Error(err),
		)
	}

	return "ok", nil
}

// allowPubkey removes any matching block entry first, then inserts the
// allow entry.
func (s *Service) allowPubkey(ctx context.Context, relayID string, c AllowPubkey) (any, error) {
	if err := s.evictFromBlockList(ctx, relayID, c.Pubkey); err != nil {
		return nil, err
	}

	list, err := s.ensureAllowList(ctx, relayID)
	if err != nil {
		return nil, errutil.Internal("failed to provision allow list", errutil.WithErr(err))
	}

	var entry relay.ListPubkey
	err = s.db.WithContext(ctx).
		Where("allow_list_id = ? AND pubkey IN ?", list.ID, keyForms(c.Pubkey)).
		Attrs(relay.ListPubkey{
			ID:          s.node.Generate().String(),
			AllowListID: &list.ID,
			Pubkey:      c.Pubkey,
			Reason:      c.Reason,
		}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return nil, errutil.Internal("failed to insert allow entry", errutil.WithErr(err))
	}

	return "ok", nil
}

// unallowPubkey removes the allow entry; absence is still success.
func (s *Service) unallowPubkey(ctx context.Context, relayID string, c UnallowPubkey) (any, error) {
	if err := s.evictFromAllowList(ctx, relayID, c.Pubkey); err != nil {
		return nil, err
	}
	return "ok", nil
}

func (s *Service) evictFromAllowList(ctx context.Context, relayID, pubkey string) error {
	var list relay.AllowList
	err := s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errutil.Internal("failed to load allow list", errutil.WithErr(err))
	}

	err = s.db.WithContext(ctx).
		Where("allow_list_id = ? AND pubkey IN ?", list.ID, keyForms(pubkey)).
		Delete(&relay.ListPubkey{}).Error
	if err != nil {
		return errutil.Internal("failed to remove allow entry", errutil.WithErr(err))
	}
	return nil
}

func (s *Service) evictFromBlockList(ctx context.Context, relayID, pubkey string) error {
	var list relay.BlockList
	err := s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errutil.Internal("failed to load block list", errutil.WithErr(err))
	}

	err = s.db.WithContext(ctx).
		Where("block_list_id = ? AND pubkey IN ?", list.ID, keyForms(pubkey)).
		Delete(&relay.ListPubkey{}).Error
	if err != nil {
		return errutil.Internal("failed to remove block entry", errutil.WithErr(err))
	}
	return nil
}

func (s *Service) listPubkeys(ctx context.Context, relayID string, allow bool) (any, error) {
	var rows []relay.ListPubkey
	var err error
	if allow {
		var list relay.AllowList
		err = s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error
		if err == nil {
			err = s.db.WithContext(ctx).Where("allow_list_id = ?", list.ID).Find(&rows).Error
		}
	} else {
		var list relay.BlockList
		err = s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error
		if err == nil {
			err = s.db.WithContext(ctx).Where("block_list_id = ?", list.ID).Find(&rows).Error
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []PubkeyEntry{}, nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to list pubkeys", errutil.WithErr(err))
	}

	out := make([]PubkeyEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, PubkeyEntry{Pubkey: row.Pubkey, Reason: row.Reason})
	}
	return out, nil
}

func (s *Service) allowKind(ctx context.Context, relayID string, c AllowKind) (any, error) {
	list, err := s.ensureAllowList(ctx, relayID)
	if err != nil {
		return nil, errutil.Internal("failed to provision allow list", errutil.WithErr(err))
	}

	entry := relay.ListKind{AllowListID: &list.ID, Kind: c.Kind}
	err = s.db.WithContext(ctx).
		Where("allow_list_id = ? AND kind = ?", list.ID, c.Kind).
		Attrs(relay.ListKind{ID: s.node.Generate().String(), AllowListID: &list.ID, Kind: c.Kind}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return nil, errutil.Internal("failed to insert kind entry", errutil.WithErr(err))
	}

	return "ok", nil
}

// disallowKind deletes the first matching row. The entry tables do not
// enforce kind uniqueness, so duplicates created by racing writers are
// removed one per call.
func (s *Service) disallowKind(ctx context.Context, relayID string, c DisallowKind) (any, error) {
	var list relay.AllowList
	err := s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "ok", nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to load allow list", errutil.WithErr(err))
	}

	var entry relay.ListKind
	err = s.db.WithContext(ctx).
		Where("allow_list_id = ? AND kind = ?", list.ID, c.Kind).
		Order("id").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "ok", nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to find kind entry", errutil.WithErr(err))
	}

	if err := s.db.WithContext(ctx).Delete(&entry).Error; err != nil {
		return nil, errutil.Internal("failed to remove kind entry", errutil.WithErr(err))
	}
	return "ok", nil
}

func (s *Service) listAllowedKinds(ctx context.Context, relayID string) (any, error) {
	var list relay.AllowList
	err := s.db.WithContext(ctx).Where("relay_id = ?", relayID).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []int{}, nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to load allow list", errutil.WithErr(err))
	}

	var kinds []int
	err = s.db.WithContext(ctx).
		Model(&relay.ListKind{}).
		Where("allow_list_id = ?", list.ID).
		Order("kind").
		Pluck("kind", &kinds).Error
	if err != nil {
		return nil, errutil.Internal("failed to list kinds", errutil.WithErr(err))
	}
	if kinds == nil {
		kinds = []int{}
	}
	return kinds, nil
}

// banEvent validates nothing beyond what ParseCommand already did and only
// enqueues the deletion job; no ACL list is touched.
func (s *Service) banEvent(ctx context.Context, relayID string, c BanEvent) (any, error) {
	if _, err := s.asynq.Enqueue(ctx, moderation.NewDeleteEventTask(moderation.DeleteEventPayload{
		RelayID: relayID,
		EventID: c.EventID,
		Reason:  c.Reason,
	})); err != nil {
		zap.L().Error("failed to enqueue event deletion job",
			zap.String("relay_id", relayID),
			zap.String("event_id", c.EventID),
			zap.Error(err),
		)
	}
	return "ok", nil
}
