package relay

import "time"

type RelayStatus string

var (
	Provisioning RelayStatus = "provisioning"
	Running      RelayStatus = "running"
	Deleting     RelayStatus = "deleting"
)

func (s RelayStatus) String() string {
	switch s {
	case Provisioning, Running, Deleting:
		return string(s)
	default:
		return ""
	}
}

type User struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	Pubkey    string    `gorm:"column:pubkey;size:64;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Admin     bool      `gorm:"column:admin"`
}

type Relay struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	Name      string    `gorm:"column:name"`
	Domain    string    `gorm:"column:domain"`
	// Status is null until the provisioning pipeline first touches the relay.
	Status               *RelayStatus `gorm:"column:status"`
	DefaultMessagePolicy bool         `gorm:"column:default_message_policy"`
	AuthRequired         bool         `gorm:"column:auth_required"`
	AllowTagged          bool         `gorm:"column:allow_tagged"`
	AllowGiftwrap        bool         `gorm:"column:allow_giftwrap"`
	IsExternal           bool         `gorm:"column:is_external"`
	Description          string       `gorm:"column:description"`
	Icon                 string       `gorm:"column:icon"`
	OwnerID              string       `gorm:"column:owner_id"`

	Owner      *User       `gorm:"foreignKey:OwnerID"`
	Moderators []Moderator `gorm:"foreignKey:RelayID"`
	AllowList  *AllowList  `gorm:"foreignKey:RelayID"`
	BlockList  *BlockList  `gorm:"foreignKey:RelayID"`
}

// Moderator grants the same authority as ownership for policy decisions and
// ACL mutation, but not for relay deletion or transfer.
type Moderator struct {
	ID      string `gorm:"column:id;primaryKey"`
	RelayID string `gorm:"column:relay_id;index"`
	UserID  string `gorm:"column:user_id"`

	User *User `gorm:"foreignKey:UserID"`
}

type AllowList struct {
	ID      string `gorm:"column:id;primaryKey"`
	RelayID string `gorm:"column:relay_id;uniqueIndex"`

	Pubkeys  []ListPubkey  `gorm:"foreignKey:AllowListID"`
	Keywords []ListKeyword `gorm:"foreignKey:AllowListID"`
	Kinds    []ListKind    `gorm:"foreignKey:AllowListID"`
}

type BlockList struct {
	ID      string `gorm:"column:id;primaryKey"`
	RelayID string `gorm:"column:relay_id;uniqueIndex"`

	Pubkeys  []ListPubkey  `gorm:"foreignKey:BlockListID"`
	Keywords []ListKeyword `gorm:"foreignKey:BlockListID"`
	Kinds    []ListKind    `gorm:"foreignKey:BlockListID"`
}

// List entry rows attach to exactly one of the two lists; the other foreign
// key stays null.
type ListPubkey struct {
	ID          string  `gorm:"column:id;primaryKey"`
	AllowListID *string `gorm:"column:allow_list_id;index"`
	BlockListID *string `gorm:"column:block_list_id;index"`
	Pubkey      string  `gorm:"column:pubkey;size:128"`
	Reason      string  `gorm:"column:reason"`
}

type ListKeyword struct {
	ID          string  `gorm:"column:id;primaryKey"`
	AllowListID *string `gorm:"column:allow_list_id;index"`
	BlockListID *string `gorm:"column:block_list_id;index"`
	Keyword     string  `gorm:"column:keyword"`
	Reason      string  `gorm:"column:reason"`
}

type ListKind struct {
	ID          string  `gorm:"column:id;primaryKey"`
	AllowListID *string `gorm:"column:allow_list_id;index"`
	BlockListID *string `gorm:"column:block_list_id;index"`
	Kind        int     `gorm:"column:kind"`
	Reason      string  `gorm:"column:reason"`
}

// AclSource points at an external list a relay periodically syncs from.
// Managed by the dashboard; carried here as a cascade target.
type AclSource struct {
	ID      string `gorm:"column:id;primaryKey"`
	RelayID string `gorm:"column:relay_id;index"`
	URL     string `gorm:"column:url"`
}

// Order and Stream are billing and replication records scoped to a relay.
// Their lifecycles belong to other subsystems; the deletion cascade removes
// them so no relay-scoped row is orphaned.
type Order struct {
	ID      string     `gorm:"column:id;primaryKey"`
	RelayID string     `gorm:"column:relay_id;index"`
	UserID  string     `gorm:"column:user_id"`
	Amount  int64      `gorm:"column:amount"`
	Status  string     `gorm:"column:status"`
	PaidAt  *time.Time `gorm:"column:paid_at"`
}

type Stream struct {
	ID        string `gorm:"column:id;primaryKey"`
	RelayID   string `gorm:"column:relay_id;index"`
	URL       string `gorm:"column:url"`
	Direction string `gorm:"column:direction"`
	Status    string `gorm:"column:status"`
}

// Models lists every table of the policy subsystem, in migration order.
func Models() []any {
	return []any{
		&User{}, &Relay{}, &Moderator{},
		&AllowList{}, &BlockList{},
		&ListPubkey{}, &ListKeyword{}, &ListKind{},
		&AclSource{}, &Order{}, &Stream{},
	}
}
