package types

import "time"

// Object is a persistent entity in the containment graph: rooms, items,
// players, NPCs, regions — everything with a path-based ID.
type Object struct {
	ID          string
	Universe    string
	Class       string
	Parent      *string // nil for objects with no container
	Owner       *string // account id, nil for unowned
	Name        string
	Description string
	Properties  map[string]any // resolved property map (defaults + overrides)
	CodeHash    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PropertySpec is one class property's declared type and default value.
type PropertySpec struct {
	Type    string // "string", "int", "float", "bool", "list", "map"
	Default any
}

// ClassDef is a class definition in the Class Registry.
type ClassDef struct {
	Name             string
	Universe         string
	ParentName       *string // nil only for the built-in root "thing"
	PropertyDefaults map[string]PropertySpec
	HandlerNames     map[string]bool
	CodeHash         *string // class-level script implementing HandlerNames, nil if none attached
	Builtin          bool    // true for the injected root chain; cannot be redefined
	CreatedAt        time.Time
}

// CodeEntry is one content-addressed script source.
type CodeEntry struct {
	Hash            string // SHA-256 hex of Source
	Source          string
	ReferenceCount  int
	CreatedAt       time.Time
}

// Timer is a persisted one-shot call_out.
type Timer struct {
	ID         string
	Universe   string
	ObjectID   string
	Method     string
	FireAt     int64 // absolute ms since epoch
	Args       []any
	CreatedAt  time.Time
}

// HeartBeat is an in-memory periodic handler registration. Never persisted;
// re-armed when an object's on_init handler calls game.set_heart_beat.
type HeartBeat struct {
	ObjectID    string
	IntervalMS  int64
	NextFireAt  int64
}

// Account is a player or operator identity. Authentication (password
// hashing, tokens, sessions) is the SessionGateway's concern; mudforge only
// tracks the access level used by pkg/permissions.
type Account struct {
	ID           string
	Username     string
	AccessLevel  AccessLevel
	CreatedAt    time.Time
}

// AccessLevel is the role hierarchy defined in spec §4.8.
type AccessLevel string

const (
	AccessPlayer  AccessLevel = "player"
	AccessBuilder AccessLevel = "builder"
	AccessWizard  AccessLevel = "wizard"
	AccessAdmin   AccessLevel = "admin"
	AccessOwner   AccessLevel = "owner"
)

// accessRank orders AccessLevel for ">=" comparisons; higher is more
// privileged. Unknown levels rank below AccessPlayer.
var accessRank = map[AccessLevel]int{
	AccessPlayer:  1,
	AccessBuilder: 2,
	AccessWizard:  3,
	AccessAdmin:   4,
	AccessOwner:   5,
}

// AtLeast reports whether a is at least as privileged as min.
func (a AccessLevel) AtLeast(min AccessLevel) bool {
	return accessRank[a] >= accessRank[min]
}

// Universe is a world partition; objects, classes, timers, grants and
// credits are scoped to one universe, while accounts and code entries are not.
type Universe struct {
	ID        string
	Name      string
	OwnerID   string
	Config    map[string]any
	CreatedAt time.Time
}

// PathGrant delegates permission over a path prefix to an account.
type PathGrant struct {
	ID          string
	Universe    string
	GranteeID   string
	PathPrefix  string
	CanDelegate bool
	GrantedBy   string
	GrantedAt   time.Time
}

// CreditBalance is a player's credit balance within one universe.
type CreditBalance struct {
	Universe string
	PlayerID string
	Balance  int64
}

// IsLivingClass reports whether name is one of the built-in living
// classes: "living", "player" or "npc". A custom class descending from
// them is not recognized.
func IsLivingClass(name string) bool {
	return name == "living" || name == "player" || name == "npc"
}
