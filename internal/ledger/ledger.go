// Package ledger implements the balance ledger: a mapping of account to
// balance with a single capability-gated issue operation. Transfer and
// approve mechanics are layered on top elsewhere and are out of scope here.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"StakeSentinel/internal/model"
	"StakeSentinel/internal/numeric"
)

var (
	// ErrForbidden is returned when the caller is not the party authorized
	// for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when an issuer re-target names the zero
	// identity or the re-target allowance is exhausted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidAmount is returned for a non-positive issue amount.
	ErrInvalidAmount = errors.New("invalid amount")
)

// BalanceLedger owns all account balances and the total supply. Balances
// change only through Issue; the issuer identity is registered exactly once
// and may be re-targeted at most once by the administrative owner.
type BalanceLedger struct {
	mu          sync.Mutex
	owner       model.Account
	issuer      model.Account
	retargeted  bool
	balances    map[model.Account]*big.Int
	totalSupply *big.Int
}

// New creates an empty balance ledger administered by owner.
func New(owner model.Account) (*BalanceLedger, error) {
	if owner == model.ZeroAccount {
		return nil, fmt.Errorf("new balance ledger: owner is the zero identity: %w", ErrUnauthorized)
	}
	return &BalanceLedger{
		owner:       owner,
		balances:    make(map[model.Account]*big.Int),
		totalSupply: new(big.Int),
	}, nil
}

// SetIssuer registers the single identity allowed to call Issue. The first
// registration is performed by the owner at wiring time; the owner may
// re-target it once afterwards.
func (l *BalanceLedger) SetIssuer(caller, target model.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return fmt.Errorf("set issuer: caller %q is not the owner: %w", caller, ErrForbidden)
	}
	if target == model.ZeroAccount {
		return fmt.Errorf("set issuer: zero identity target: %w", ErrUnauthorized)
	}
	if l.issuer != model.ZeroAccount {
		if l.retargeted {
			return fmt.Errorf("set issuer: re-target allowance exhausted: %w", ErrUnauthorized)
		}
		l.retargeted = true
	}
	l.issuer = target
	return nil
}

// Issue increases account's balance and the total supply by amount. Only
// the registered issuer may call it.
func (l *BalanceLedger) Issue(caller, account model.Account, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.issuer == model.ZeroAccount || caller != l.issuer {
		return fmt.Errorf("issue: caller %q is not the issuer: %w", caller, ErrForbidden)
	}
	if !numeric.IsPositive(amount) {
		return fmt.Errorf("issue: amount must be positive: %w", ErrInvalidAmount)
	}

	bal, ok := l.balances[account]
	if !ok {
		bal = new(big.Int)
		l.balances[account] = bal
	}
	bal.Add(bal, amount)
	l.totalSupply.Add(l.totalSupply, amount)
	return nil
}

// BalanceOf returns account's balance, zero for unknown accounts. It never
// fails.
func (l *BalanceLedger) BalanceOf(account model.Account) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return numeric.Clone(l.balances[account])
}

// TotalSupply returns the sum of all balances.
func (l *BalanceLedger) TotalSupply() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return numeric.Clone(l.totalSupply)
}
