package rewards

import (
	"math/big"

	"StakeSentinel/internal/model"
	"StakeSentinel/internal/numeric"
)

// projectedLocked replays the accrual formula up to now without mutating
// state. Views are built on it so queries never disturb the ledger.
func (l *Ledger) projectedLocked(now int64) *big.Int {
	acc := numeric.Clone(l.accumulator)
	if now > l.lastUpdate && l.totalStaked.Sign() > 0 {
		emitted := new(big.Int).Mul(l.rewardRate, big.NewInt(now-l.lastUpdate))
		acc.Add(acc, numeric.MulDiv(emitted, Scale, l.totalStaked))
	}
	return acc
}

// RewardPerUnit returns the scaled reward-per-staked-unit accumulator as of
// now, without mutating state.
func (l *Ledger) RewardPerUnit() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projectedLocked(l.now().Unix())
}

// PendingReward returns the reward account could claim right now: settled
// unclaimed rewards plus the unsettled accumulator movement since the
// account's last settlement.
func (l *Ledger) PendingReward(account model.Account) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.accounts[account]
	if !ok {
		return new(big.Int)
	}
	acc := l.projectedLocked(l.now().Unix())
	diff := acc.Sub(acc, rec.RewardPerUnitPaid)
	pending := numeric.Clone(rec.Unclaimed)
	if diff.Sign() > 0 && rec.Staked.Sign() > 0 {
		pending.Add(pending, numeric.MulDiv(rec.Staked, diff, Scale))
	}
	return pending
}

// Staked returns account's staked amount, zero for unknown accounts.
func (l *Ledger) Staked(account model.Account) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.accounts[account]
	if !ok {
		return new(big.Int)
	}
	return numeric.Clone(rec.Staked)
}

// TotalStaked returns the pool-wide staked amount.
func (l *Ledger) TotalStaked() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return numeric.Clone(l.totalStaked)
}

// RewardRate returns the current emission rate.
func (l *Ledger) RewardRate() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return numeric.Clone(l.rewardRate)
}

// PoolStatus returns a copy of the pool's global state.
func (l *Ledger) PoolStatus() model.PoolState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return model.PoolState{
		TotalStaked:    numeric.Clone(l.totalStaked),
		RewardRate:     numeric.Clone(l.rewardRate),
		Accumulator:    numeric.Clone(l.accumulator),
		LastUpdateTime: l.lastUpdate,
		Stakers:        len(l.accounts),
	}
}
