// Package credits implements the CreditLedger used by game.get_credits/
// deduct_credits/admin_grant_credits, backed by pkg/store's credits
// table.
package credits

import "github.com/cuemby/mudforge/pkg/store"

// Ledger tracks per-player credit balances within one universe.
type Ledger struct {
	universe string
	store    *store.Store
}

// New creates a Ledger over the given store.
func New(universe string, st *store.Store) *Ledger {
	return &Ledger{universe: universe, store: st}
}

// Balance returns a player's current balance.
func (l *Ledger) Balance(playerID string) (int64, error) {
	return l.store.GetBalance(l.universe, playerID)
}

// Deduct debits amount, returning InsufficientCredits on underflow. The
// reason is accepted for audit logging by the caller; the ledger itself
// does not persist it.
func (l *Ledger) Deduct(playerID string, amount int64, reason string) (int64, error) {
	return l.store.AdjustBalance(l.universe, playerID, -amount)
}

// Grant credits a player's balance; privileged (admin_grant_credits).
func (l *Ledger) Grant(playerID string, amount int64) (int64, error) {
	return l.store.AdjustBalance(l.universe, playerID, amount)
}
