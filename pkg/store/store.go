// Package store is the KeyedStore: the SQLite-backed persistence layer
// for spec §6.2's schema. It owns accounts, universes, objects, classes,
// code entries, credits, timers, and path grants. Raft's own log and vote
// state lives in raft-boltdb, not here — see pkg/replicator.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/types"
)

// Store wraps a SQLite connection configured for single-writer, many-reader
// access (WAL journal, foreign keys on).
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and applies
// the schema. Use ":memory:" for ephemeral/test stores.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&_pragma=foreign_keys(ON)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// DB exposes the underlying connection for callers that need raw SQL,
// such as tests seeding account rows that no Store method writes.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		salt TEXT NOT NULL,
		token TEXT,
		access_level TEXT NOT NULL DEFAULT 'player',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS universes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		FOREIGN KEY(owner_id) REFERENCES accounts(id)
	);

	CREATE TABLE IF NOT EXISTS objects (
		id TEXT NOT NULL,
		universe_id TEXT NOT NULL,
		class TEXT NOT NULL,
		parent_id TEXT,
		owner_id TEXT,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		properties TEXT NOT NULL DEFAULT '{}',
		code_hash TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY(universe_id, id),
		FOREIGN KEY(universe_id) REFERENCES universes(id)
	);

	CREATE INDEX IF NOT EXISTS idx_objects_parent ON objects(universe_id, parent_id);
	CREATE INDEX IF NOT EXISTS idx_objects_class ON objects(universe_id, class);

	CREATE TABLE IF NOT EXISTS classes (
		name TEXT NOT NULL,
		universe_id TEXT NOT NULL,
		parent TEXT,
		code_hash TEXT,
		created_at INTEGER NOT NULL,
		PRIMARY KEY(universe_id, name)
	);

	CREATE TABLE IF NOT EXISTS class_properties (
		class_name TEXT NOT NULL,
		universe_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY(universe_id, class_name, key),
		FOREIGN KEY(universe_id, class_name) REFERENCES classes(universe_id, name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS class_handlers (
		class_name TEXT NOT NULL,
		universe_id TEXT NOT NULL,
		handler TEXT NOT NULL,
		PRIMARY KEY(universe_id, class_name, handler),
		FOREIGN KEY(universe_id, class_name) REFERENCES classes(universe_id, name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS code_store (
		hash TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		reference_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS credits (
		universe_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		balance INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY(universe_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS timers (
		id TEXT PRIMARY KEY,
		universe_id TEXT NOT NULL,
		object_id TEXT NOT NULL,
		method TEXT NOT NULL,
		fire_at INTEGER NOT NULL,
		args TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_timers_fire ON timers(universe_id, fire_at);

	CREATE TABLE IF NOT EXISTS path_grants (
		id TEXT PRIMARY KEY,
		universe_id TEXT NOT NULL,
		grantee_id TEXT NOT NULL,
		path_prefix TEXT NOT NULL,
		can_delegate INTEGER NOT NULL DEFAULT 0,
		granted_by TEXT NOT NULL,
		granted_at INTEGER NOT NULL,
		UNIQUE(universe_id, grantee_id, path_prefix)
	);

	CREATE TABLE IF NOT EXISTS raft_log (
		log_index INTEGER PRIMARY KEY,
		term INTEGER NOT NULL,
		entry_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS raft_vote (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		term INTEGER NOT NULL,
		node_id TEXT NOT NULL,
		committed INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func nowMS() int64 { return time.Now().UnixMilli() }

// --- Objects ---

// PutObject inserts or replaces an object row.
func (s *Store) PutObject(o *types.Object) error {
	props, err := json.Marshal(o.Properties)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO objects (id, universe_id, class, parent_id, owner_id, name, description, properties, code_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(universe_id, id) DO UPDATE SET
			class=excluded.class, parent_id=excluded.parent_id, owner_id=excluded.owner_id,
			name=excluded.name, description=excluded.description, properties=excluded.properties,
			code_hash=excluded.code_hash, updated_at=excluded.updated_at
	`, o.ID, o.Universe, o.Class, o.Parent, o.Owner, o.Name, o.Description, string(props), o.CodeHash,
		o.CreatedAt.UnixMilli(), o.UpdatedAt.UnixMilli())
	return err
}

// GetObject fetches one object by universe + id.
func (s *Store) GetObject(universe, id string) (*types.Object, error) {
	row := s.db.QueryRow(`
		SELECT id, universe_id, class, parent_id, owner_id, name, description, properties, code_hash, created_at, updated_at
		FROM objects WHERE universe_id = ? AND id = ?
	`, universe, id)
	return scanObject(row)
}

// ChildrenOf lists objects whose parent_id is parentID.
func (s *Store) ChildrenOf(universe, parentID string) ([]*types.Object, error) {
	rows, err := s.db.Query(`
		SELECT id, universe_id, class, parent_id, owner_id, name, description, properties, code_hash, created_at, updated_at
		FROM objects WHERE universe_id = ? AND parent_id = ?
	`, universe, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObjects(rows)
}

// DeleteObject removes an object row and then the object's timers.
func (s *Store) DeleteObject(universe, id string) error {
	res, err := s.db.Exec(`DELETE FROM objects WHERE universe_id = ? AND id = ?`, universe, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &muderrs.NotFound{ID: id}
	}
	_, err = s.db.Exec(`DELETE FROM timers WHERE universe_id = ? AND object_id = ?`, universe, id)
	return err
}

// CountObjectsByClass supports pkg/metrics.Collector.
func (s *Store) CountObjectsByClass() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT class, COUNT(*) FROM objects GROUP BY class`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return nil, err
		}
		out[class] = n
	}
	return out, rows.Err()
}

func scanObject(row *sql.Row) (*types.Object, error) {
	var o types.Object
	var propsJSON string
	var createdAt, updatedAt int64
	err := row.Scan(&o.ID, &o.Universe, &o.Class, &o.Parent, &o.Owner, &o.Name, &o.Description,
		&propsJSON, &o.CodeHash, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &muderrs.NotFound{ID: o.ID}
	}
	if err != nil {
		return nil, err
	}
	o.Properties = map[string]any{}
	if err := json.Unmarshal([]byte(propsJSON), &o.Properties); err != nil {
		return nil, err
	}
	o.CreatedAt = time.UnixMilli(createdAt)
	o.UpdatedAt = time.UnixMilli(updatedAt)
	return &o, nil
}

func scanObjects(rows *sql.Rows) ([]*types.Object, error) {
	var out []*types.Object
	for rows.Next() {
		var o types.Object
		var propsJSON string
		var createdAt, updatedAt int64
		if err := rows.Scan(&o.ID, &o.Universe, &o.Class, &o.Parent, &o.Owner, &o.Name, &o.Description,
			&propsJSON, &o.CodeHash, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		o.Properties = map[string]any{}
		if err := json.Unmarshal([]byte(propsJSON), &o.Properties); err != nil {
			return nil, err
		}
		o.CreatedAt = time.UnixMilli(createdAt)
		o.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, &o)
	}
	return out, rows.Err()
}

// --- Classes ---

// PutClass inserts or replaces a class definition, its property defaults,
// and its handler set.
func (s *Store) PutClass(c *types.ClassDef) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO classes (name, universe_id, parent, code_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(universe_id, name) DO UPDATE SET parent=excluded.parent, code_hash=excluded.code_hash
	`, c.Name, c.Universe, c.ParentName, c.CodeHash, c.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM class_properties WHERE universe_id = ? AND class_name = ?`, c.Universe, c.Name); err != nil {
		return err
	}
	for key, spec := range c.PropertyDefaults {
		val, err := json.Marshal(spec)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO class_properties (class_name, universe_id, key, value) VALUES (?, ?, ?, ?)`,
			c.Name, c.Universe, key, string(val)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM class_handlers WHERE universe_id = ? AND class_name = ?`, c.Universe, c.Name); err != nil {
		return err
	}
	for handler := range c.HandlerNames {
		if _, err := tx.Exec(`INSERT INTO class_handlers (class_name, universe_id, handler) VALUES (?, ?, ?)`,
			c.Name, c.Universe, handler); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetClass loads a persisted (non-builtin) class definition.
func (s *Store) GetClass(universe, name string) (*types.ClassDef, error) {
	row := s.db.QueryRow(`SELECT name, universe_id, parent, code_hash, created_at FROM classes WHERE universe_id = ? AND name = ?`, universe, name)
	var c types.ClassDef
	var createdAt int64
	if err := row.Scan(&c.Name, &c.Universe, &c.ParentName, &c.CodeHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &muderrs.UnknownClass{Class: name}
		}
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt)

	c.PropertyDefaults = map[string]types.PropertySpec{}
	rows, err := s.db.Query(`SELECT key, value FROM class_properties WHERE universe_id = ? AND class_name = ?`, universe, name)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			rows.Close()
			return nil, err
		}
		var spec types.PropertySpec
		if err := json.Unmarshal([]byte(val), &spec); err != nil {
			rows.Close()
			return nil, err
		}
		c.PropertyDefaults[key] = spec
	}
	rows.Close()

	c.HandlerNames = map[string]bool{}
	rows, err = s.db.Query(`SELECT handler FROM class_handlers WHERE universe_id = ? AND class_name = ?`, universe, name)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return nil, err
		}
		c.HandlerNames[h] = true
	}
	rows.Close()
	return &c, nil
}

// SetClassCode attaches (or clears, with hash == "") the class-level
// script implementing its declared handlers.
func (s *Store) SetClassCode(universe, name, hash string) error {
	var h interface{}
	if hash != "" {
		h = hash
	}
	res, err := s.db.Exec(`UPDATE classes SET code_hash = ? WHERE universe_id = ? AND name = ?`, h, universe, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &muderrs.UnknownClass{Class: name}
	}
	return nil
}

// CountClasses supports pkg/metrics.Collector.
func (s *Store) CountClasses() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM classes`).Scan(&n)
	return n, err
}

// --- Code store ---

// PutCode inserts a code entry if absent (idempotent by hash).
func (s *Store) PutCode(hash, source string) error {
	_, err := s.db.Exec(`
		INSERT INTO code_store (hash, source, reference_count, created_at) VALUES (?, ?, 0, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, source, nowMS())
	return err
}

// GetCode fetches source by hash.
func (s *Store) GetCode(hash string) (string, error) {
	var source string
	err := s.db.QueryRow(`SELECT source FROM code_store WHERE hash = ?`, hash).Scan(&source)
	if err == sql.ErrNoRows {
		return "", &muderrs.NotFound{ID: hash}
	}
	return source, err
}

// AdjustCodeRefCount moves reference_count by delta (may be negative).
func (s *Store) AdjustCodeRefCount(hash string, delta int) error {
	_, err := s.db.Exec(`UPDATE code_store SET reference_count = reference_count + ? WHERE hash = ?`, delta, hash)
	return err
}

// SweepCode deletes zero-refcount entries older than the grace window and
// returns how many were removed.
func (s *Store) SweepCode(grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace).UnixMilli()
	res, err := s.db.Exec(`DELETE FROM code_store WHERE reference_count <= 0 AND created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountCodeEntries supports pkg/metrics.Collector.
func (s *Store) CountCodeEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM code_store`).Scan(&n)
	return n, err
}

// --- Credits ---

// GetBalance returns a player's credit balance, 0 if no row exists.
func (s *Store) GetBalance(universe, playerID string) (int64, error) {
	var bal int64
	err := s.db.QueryRow(`SELECT balance FROM credits WHERE universe_id = ? AND player_id = ?`, universe, playerID).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return bal, err
}

// AdjustBalance moves a player's balance by delta and returns the new
// balance. Rejects negative results with InsufficientCredits.
func (s *Store) AdjustBalance(universe, playerID string, delta int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bal int64
	err = tx.QueryRow(`SELECT balance FROM credits WHERE universe_id = ? AND player_id = ?`, universe, playerID).Scan(&bal)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	newBal := bal + delta
	if newBal < 0 {
		return 0, &muderrs.InsufficientCredits{Have: bal, Need: -delta}
	}
	_, err = tx.Exec(`
		INSERT INTO credits (universe_id, player_id, balance) VALUES (?, ?, ?)
		ON CONFLICT(universe_id, player_id) DO UPDATE SET balance = excluded.balance
	`, universe, playerID, newBal)
	if err != nil {
		return 0, err
	}
	return newBal, tx.Commit()
}

// --- Timers ---

// PutTimer persists a one-shot call_out.
func (s *Store) PutTimer(t *types.Timer) error {
	args, err := json.Marshal(t.Args)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO timers (id, universe_id, object_id, method, fire_at, args, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Universe, t.ObjectID, t.Method, t.FireAt, string(args), t.CreatedAt.UnixMilli())
	return err
}

// DeleteTimer removes a timer by id (fired, or cancelled via remove_call_out).
func (s *Store) DeleteTimer(universe, id string) error {
	_, err := s.db.Exec(`DELETE FROM timers WHERE universe_id = ? AND id = ?`, universe, id)
	return err
}

// LoadPendingTimers loads every timer for a universe, for scheduler warm-start.
func (s *Store) LoadPendingTimers(universe string) ([]*types.Timer, error) {
	rows, err := s.db.Query(`SELECT id, universe_id, object_id, method, fire_at, args, created_at FROM timers WHERE universe_id = ?`, universe)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.Timer
	for rows.Next() {
		var t types.Timer
		var argsJSON string
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Universe, &t.ObjectID, &t.Method, &t.FireAt, &argsJSON, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(argsJSON), &t.Args); err != nil {
			return nil, err
		}
		t.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, &t)
	}
	return out, rows.Err()
}

// --- Path grants ---

// PutGrant inserts a path grant (unique per universe+grantee+prefix).
func (s *Store) PutGrant(g *types.PathGrant) error {
	_, err := s.db.Exec(`
		INSERT INTO path_grants (id, universe_id, grantee_id, path_prefix, can_delegate, granted_by, granted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.Universe, g.GranteeID, g.PathPrefix, g.CanDelegate, g.GrantedBy, g.GrantedAt.UnixMilli())
	return err
}

// GrantsFor lists every grant held by an account in a universe.
func (s *Store) GrantsFor(universe, granteeID string) ([]*types.PathGrant, error) {
	rows, err := s.db.Query(`
		SELECT id, universe_id, grantee_id, path_prefix, can_delegate, granted_by, granted_at
		FROM path_grants WHERE universe_id = ? AND grantee_id = ?
	`, universe, granteeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.PathGrant
	for rows.Next() {
		var g types.PathGrant
		var grantedAt int64
		if err := rows.Scan(&g.ID, &g.Universe, &g.GranteeID, &g.PathPrefix, &g.CanDelegate, &g.GrantedBy, &grantedAt); err != nil {
			return nil, err
		}
		g.GrantedAt = time.UnixMilli(grantedAt)
		out = append(out, &g)
	}
	return out, rows.Err()
}

// --- Accounts & universes ---

// GetAccount loads an account by id.
func (s *Store) GetAccount(id string) (*types.Account, error) {
	row := s.db.QueryRow(`SELECT id, username, access_level, created_at FROM accounts WHERE id = ?`, id)
	var a types.Account
	var createdAt int64
	if err := row.Scan(&a.ID, &a.Username, &a.AccessLevel, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &muderrs.NotFound{ID: id}
		}
		return nil, err
	}
	a.CreatedAt = time.UnixMilli(createdAt)
	return &a, nil
}

// SetAccessLevel updates an account's role, per spec §4.5's privileged
// set_access_level.
func (s *Store) SetAccessLevel(accountID string, level types.AccessLevel) error {
	res, err := s.db.Exec(`UPDATE accounts SET access_level = ? WHERE id = ?`, level, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &muderrs.NotFound{ID: accountID}
	}
	return nil
}

// RevokeGrant removes one path grant by id, e.g. unassign_region.
func (s *Store) RevokeGrant(universe, id string) error {
	res, err := s.db.Exec(`DELETE FROM path_grants WHERE universe_id = ? AND id = ?`, universe, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &muderrs.NotFound{ID: id}
	}
	return nil
}

// --- Snapshot support ---

// AllObjects lists every object in a universe, for Raft snapshotting.
func (s *Store) AllObjects(universe string) ([]*types.Object, error) {
	rows, err := s.db.Query(`
		SELECT id, universe_id, class, parent_id, owner_id, name, description, properties, code_hash, created_at, updated_at
		FROM objects WHERE universe_id = ?
	`, universe)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObjects(rows)
}

// AllClasses lists every class name defined in a universe (builtins are
// never persisted and so never appear here).
func (s *Store) AllClasses(universe string) ([]*types.ClassDef, error) {
	rows, err := s.db.Query(`SELECT name FROM classes WHERE universe_id = ?`, universe)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	rows.Close()

	var out []*types.ClassDef
	for _, name := range names {
		c, err := s.GetClass(universe, name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// AllCode lists every code store entry, process-wide (code is not
// universe-scoped).
func (s *Store) AllCode() ([]*types.CodeEntry, error) {
	rows, err := s.db.Query(`SELECT hash, source, reference_count, created_at FROM code_store`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.CodeEntry
	for rows.Next() {
		var e types.CodeEntry
		var createdAt int64
		if err := rows.Scan(&e.Hash, &e.Source, &e.ReferenceCount, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// AllCredits lists every credit balance in a universe.
func (s *Store) AllCredits(universe string) ([]*types.CreditBalance, error) {
	rows, err := s.db.Query(`SELECT universe_id, player_id, balance FROM credits WHERE universe_id = ?`, universe)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.CreditBalance
	for rows.Next() {
		var c types.CreditBalance
		if err := rows.Scan(&c.Universe, &c.PlayerID, &c.Balance); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AllTimers is an alias of LoadPendingTimers, named for symmetry with the
// other snapshot-support listers.
func (s *Store) AllTimers(universe string) ([]*types.Timer, error) {
	return s.LoadPendingTimers(universe)
}

// AllGrants lists every path grant in a universe.
func (s *Store) AllGrants(universe string) ([]*types.PathGrant, error) {
	rows, err := s.db.Query(`
		SELECT id, universe_id, grantee_id, path_prefix, can_delegate, granted_by, granted_at
		FROM path_grants WHERE universe_id = ?
	`, universe)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.PathGrant
	for rows.Next() {
		var g types.PathGrant
		var grantedAt int64
		if err := rows.Scan(&g.ID, &g.Universe, &g.GranteeID, &g.PathPrefix, &g.CanDelegate, &g.GrantedBy, &grantedAt); err != nil {
			return nil, err
		}
		g.GrantedAt = time.UnixMilli(grantedAt)
		out = append(out, &g)
	}
	return out, rows.Err()
}

// AllUniverses lists every universe, for cluster-wide snapshotting.
func (s *Store) AllUniverses() ([]*types.Universe, error) {
	rows, err := s.db.Query(`SELECT id, name, owner_id, config, created_at FROM universes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.Universe
	for rows.Next() {
		var u types.Universe
		var cfgJSON string
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Name, &u.OwnerID, &cfgJSON, &createdAt); err != nil {
			return nil, err
		}
		u.Config = map[string]any{}
		if err := json.Unmarshal([]byte(cfgJSON), &u.Config); err != nil {
			return nil, err
		}
		u.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, &u)
	}
	return out, rows.Err()
}

// PutUniverse inserts or replaces a universe row.
func (s *Store) PutUniverse(u *types.Universe) error {
	cfg, err := json.Marshal(u.Config)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO universes (id, name, owner_id, config, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, config=excluded.config
	`, u.ID, u.Name, u.OwnerID, string(cfg), u.CreatedAt.UnixMilli())
	return err
}

// --- Raft audit trail ---
//
// hashicorp/raft keeps its own log and vote state in raft-boltdb
// (pkg/replicator); these two tables are a parallel, human-readable audit
// trail the FSM writes to on every Apply, honoring spec §6.2's documented
// schema literally even though the consensus library never reads them back.

// AppendRaftLogEntry records one committed log entry for audit/replay
// tooling. Never read by hashicorp/raft itself.
func (s *Store) AppendRaftLogEntry(index, term uint64, entryType string, payload []byte, nowMS int64) error {
	_, err := s.db.Exec(`
		INSERT INTO raft_log (log_index, term, entry_type, payload, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(log_index) DO UPDATE SET term=excluded.term, entry_type=excluded.entry_type, payload=excluded.payload
	`, index, term, entryType, string(payload), nowMS)
	return err
}

// RecordVote persists the node's last known term/vote, for audit purposes.
func (s *Store) RecordVote(term uint64, nodeID string, committed bool) error {
	c := 0
	if committed {
		c = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO raft_vote (id, term, node_id, committed) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET term=excluded.term, node_id=excluded.node_id, committed=excluded.committed
	`, term, nodeID, c)
	return err
}
