// Package vault provides custody of the staked resource. The in-memory
// implementation backs the daemon and tests; a deployment against a real
// asset plugs its own implementation into the same interface.
package vault

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"StakeSentinel/internal/model"
	"StakeSentinel/internal/numeric"
)

// ErrInsufficientFunds is returned when an account's free funds cannot
// cover a transfer into the vault.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Memory tracks each account's free funds and the amount held in custody.
type Memory struct {
	mu    sync.Mutex
	funds map[model.Account]*big.Int
	held  *big.Int
}

// NewMemory creates an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{
		funds: make(map[model.Account]*big.Int),
		held:  new(big.Int),
	}
}

// Credit grants free funds to an account. Used to seed demo and test
// accounts.
func (m *Memory) Credit(account model.Account, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.funds[account]
	if !ok {
		bal = new(big.Int)
		m.funds[account] = bal
	}
	bal.Add(bal, amount)
}

// TransferIn moves amount from the account's free funds into custody.
func (m *Memory) TransferIn(account model.Account, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal := m.funds[account]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("transfer in for %q: %w", account, ErrInsufficientFunds)
	}
	bal.Sub(bal, amount)
	m.held.Add(m.held, amount)
	return nil
}

// TransferOut returns amount from custody to the account's free funds.
func (m *Memory) TransferOut(account model.Account, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held.Cmp(amount) < 0 {
		return fmt.Errorf("transfer out for %q: %w", account, ErrInsufficientFunds)
	}
	bal, ok := m.funds[account]
	if !ok {
		bal = new(big.Int)
		m.funds[account] = bal
	}
	m.held.Sub(m.held, amount)
	bal.Add(bal, amount)
	return nil
}

// FreeFunds returns the account's funds outside custody.
func (m *Memory) FreeFunds(account model.Account) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return numeric.Clone(m.funds[account])
}

// Held returns the total amount in custody.
func (m *Memory) Held() *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return numeric.Clone(m.held)
}
