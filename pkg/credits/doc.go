/*
Package credits implements the CreditLedger: per-player, per-universe
credit balances backed by pkg/store's credits table. Oracle calls debit
through this ledger before issuing the underlying request; underflow
aborts the execution with InsufficientCredits.

# See Also

  - pkg/hostapi for get_credits/deduct_credits/admin_grant_credits
  - pkg/oracle, whose calls are priced against this ledger
*/
package credits
