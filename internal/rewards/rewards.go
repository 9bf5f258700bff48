// Package rewards implements the continuous-time reward-per-share staking
// ledger. A single scaled accumulator tracks reward-per-staked-unit for the
// whole pool; each account carries a snapshot of the accumulator from its
// last settlement, so every operation is O(1) regardless of how many
// participants exist.
package rewards

import (
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"StakeSentinel/internal/model"
	"StakeSentinel/internal/numeric"
	"StakeSentinel/internal/recorder"
)

var (
	// ErrInvalidAmount is returned for a zero deposit or withdrawal.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidRate is returned for a zero reward rate.
	ErrInvalidRate = errors.New("invalid rate")
	// ErrInsufficientStake is returned when a withdrawal exceeds the
	// caller's staked amount.
	ErrInsufficientStake = errors.New("insufficient stake")
	// ErrNothingToClaim is returned when the caller has no settled rewards.
	ErrNothingToClaim = errors.New("nothing to claim")
	// ErrTransferFailed is returned when the vault rejects a resource
	// transfer; the whole operation is rolled back.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrForbidden is returned when the caller is not the rate authority.
	ErrForbidden = errors.New("forbidden")
)

// Scale is the fixed-point factor applied to the accumulator so that
// sub-integer per-unit rewards survive integer division. Division floors,
// which biases rewards slightly downward by at most one unit per settlement.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// BalanceIssuer is the capability the reward ledger holds on the balance
// ledger: the single privileged mint operation.
type BalanceIssuer interface {
	Issue(caller, account model.Account, amount *big.Int) error
}

// Vault holds the staked resource. TransferIn pulls amount from the account
// into custody, TransferOut returns it. Either may fail; a failure aborts
// and rolls back the surrounding ledger operation.
type Vault interface {
	TransferIn(account model.Account, amount *big.Int) error
	TransferOut(account model.Account, amount *big.Int) error
}

// Ledger owns the reward pool state and all per-account stake records.
type Ledger struct {
	mu        sync.Mutex
	identity  model.Account // caller identity presented to the balance ledger
	authority model.Account // may change the reward rate
	issuer    BalanceIssuer
	vault     Vault
	rec       recorder.Recorder
	now       func() time.Time

	totalStaked *big.Int
	rewardRate  *big.Int // reward units emitted per second, pool-wide
	accumulator *big.Int // scaled reward-per-staked-unit, non-decreasing
	lastUpdate  int64    // unix seconds
	accounts    map[model.Account]*model.StakeRecord
}

// New creates a reward ledger. identity is registered as the issuer on the
// balance ledger by the wiring code; authority may change the reward rate.
func New(identity, authority model.Account, issuer BalanceIssuer, vault Vault, rate *big.Int, rec recorder.Recorder) (*Ledger, error) {
	if identity == model.ZeroAccount || authority == model.ZeroAccount {
		return nil, fmt.Errorf("new reward ledger: zero identity: %w", ErrForbidden)
	}
	if !numeric.IsPositive(rate) {
		return nil, fmt.Errorf("new reward ledger: %w", ErrInvalidRate)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	l := &Ledger{
		identity:    identity,
		authority:   authority,
		issuer:      issuer,
		vault:       vault,
		rec:         rec,
		now:         time.Now,
		totalStaked: new(big.Int),
		rewardRate:  numeric.Clone(rate),
		accumulator: new(big.Int),
		accounts:    make(map[model.Account]*model.StakeRecord),
	}
	l.lastUpdate = l.now().Unix()
	return l, nil
}

// accrueLocked folds the emission since lastUpdate into the accumulator.
// Zero elapsed time is a no-op; a clock that moved backward is an
// environment fault and leaves state untouched.
func (l *Ledger) accrueLocked(now int64) {
	if now <= l.lastUpdate {
		return
	}
	if l.totalStaked.Sign() > 0 {
		emitted := new(big.Int).Mul(l.rewardRate, big.NewInt(now-l.lastUpdate))
		l.accumulator.Add(l.accumulator, numeric.MulDiv(emitted, Scale, l.totalStaked))
	}
	l.lastUpdate = now
}

// settleLocked folds the accumulator movement since the account's last
// settlement into its unclaimed balance and refreshes the snapshot. It must
// run before any change to the account's stake and before any read of its
// rewards; that ordering is what makes per-account snapshots commute with
// pool-size and rate changes.
func (l *Ledger) settleLocked(account model.Account) *model.StakeRecord {
	rec, ok := l.accounts[account]
	if !ok {
		rec = model.NewStakeRecord()
		l.accounts[account] = rec
	}
	diff := new(big.Int).Sub(l.accumulator, rec.RewardPerUnitPaid)
	if diff.Sign() > 0 && rec.Staked.Sign() > 0 {
		rec.Unclaimed.Add(rec.Unclaimed, numeric.MulDiv(rec.Staked, diff, Scale))
	}
	rec.RewardPerUnitPaid.Set(l.accumulator)
	return rec
}

// snapshot captures everything an operation may mutate, for all-or-nothing
// rollback when the trailing side effect fails.
type snapshot struct {
	totalStaked *big.Int
	accumulator *big.Int
	lastUpdate  int64
	record      *model.StakeRecord // nil if the account had no record
}

func (l *Ledger) snapshotLocked(account model.Account) snapshot {
	s := snapshot{
		totalStaked: numeric.Clone(l.totalStaked),
		accumulator: numeric.Clone(l.accumulator),
		lastUpdate:  l.lastUpdate,
	}
	if rec, ok := l.accounts[account]; ok {
		s.record = &model.StakeRecord{
			Staked:            numeric.Clone(rec.Staked),
			RewardPerUnitPaid: numeric.Clone(rec.RewardPerUnitPaid),
			Unclaimed:         numeric.Clone(rec.Unclaimed),
		}
	}
	return s
}

func (l *Ledger) restoreLocked(account model.Account, s snapshot) {
	l.totalStaked = s.totalStaked
	l.accumulator = s.accumulator
	l.lastUpdate = s.lastUpdate
	if s.record == nil {
		delete(l.accounts, account)
	} else {
		l.accounts[account] = s.record
	}
}

// Deposit stakes amount for caller. The resource transfer into the vault
// happens after all bookkeeping; a failed transfer rolls everything back.
func (l *Ledger) Deposit(caller model.Account, amount *big.Int) error {
	if !numeric.IsPositive(amount) {
		return fmt.Errorf("deposit: %w", ErrInvalidAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshotLocked(caller)
	l.accrueLocked(l.now().Unix())
	rec := l.settleLocked(caller)

	rec.Staked.Add(rec.Staked, amount)
	l.totalStaked.Add(l.totalStaked, amount)

	if err := l.vault.TransferIn(caller, amount); err != nil {
		l.restoreLocked(caller, snap)
		return fmt.Errorf("deposit: %w: %s", ErrTransferFailed, err)
	}

	l.emit(l.rec.RecordDeposit(&recorder.DepositEvent{Account: caller, Amount: numeric.Clone(amount)}), "deposit")
	return nil
}

// Withdraw unstakes amount for caller. Stake and totalStaked are decremented
// strictly before the transfer out of the vault, so a reentrant callback
// during the transfer observes already-updated state. A failed transfer
// rolls the whole operation back.
func (l *Ledger) Withdraw(caller model.Account, amount *big.Int) error {
	if !numeric.IsPositive(amount) {
		return fmt.Errorf("withdraw: %w", ErrInvalidAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.accounts[caller]
	if !ok || rec.Staked.Cmp(amount) < 0 {
		return fmt.Errorf("withdraw: %w", ErrInsufficientStake)
	}

	snap := l.snapshotLocked(caller)
	l.accrueLocked(l.now().Unix())
	rec = l.settleLocked(caller)

	rec.Staked.Sub(rec.Staked, amount)
	l.totalStaked.Sub(l.totalStaked, amount)

	if err := l.vault.TransferOut(caller, amount); err != nil {
		l.restoreLocked(caller, snap)
		return fmt.Errorf("withdraw: %w: %s", ErrTransferFailed, err)
	}

	l.emit(l.rec.RecordWithdrawal(&recorder.WithdrawEvent{Account: caller, Amount: numeric.Clone(amount)}), "withdrawal")
	return nil
}

// Claim settles and pays out the caller's accrued rewards through the
// balance ledger's issue capability. Unclaimed is zeroed before the issue
// call; a failed issue rolls everything back.
func (l *Ledger) Claim(caller model.Account) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshotLocked(caller)
	l.accrueLocked(l.now().Unix())
	rec := l.settleLocked(caller)

	if rec.Unclaimed.Sign() == 0 {
		l.restoreLocked(caller, snap)
		return nil, fmt.Errorf("claim: %w", ErrNothingToClaim)
	}

	owed := numeric.Clone(rec.Unclaimed)
	rec.Unclaimed.SetInt64(0)

	if err := l.issuer.Issue(l.identity, caller, owed); err != nil {
		l.restoreLocked(caller, snap)
		return nil, fmt.Errorf("claim: issue reward: %w", err)
	}

	l.emit(l.rec.RecordClaim(&recorder.ClaimEvent{Account: caller, Amount: numeric.Clone(owed)}), "claim")
	return owed, nil
}

// SetRewardRate changes the pool-wide emission rate. Accrual runs first so
// rewards earned under the old rate are frozen into the accumulator; the
// new rate applies from now onward only.
func (l *Ledger) SetRewardRate(caller model.Account, newRate *big.Int) error {
	if caller != l.authority {
		return fmt.Errorf("set reward rate: caller %q is not the authority: %w", caller, ErrForbidden)
	}
	if !numeric.IsPositive(newRate) {
		return fmt.Errorf("set reward rate: %w", ErrInvalidRate)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accrueLocked(l.now().Unix())
	old := l.rewardRate
	l.rewardRate = numeric.Clone(newRate)

	l.emit(l.rec.RecordRateChange(&recorder.RateChangeEvent{Old: old, New: numeric.Clone(newRate)}), "rate change")
	return nil
}

// Checkpoint accrues up to now and publishes the fresh accumulator value,
// so observers see emission progress even when no one transacts. Returns
// the accumulator after accrual.
func (l *Ledger) Checkpoint() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accrueLocked(l.now().Unix())
	acc := numeric.Clone(l.accumulator)
	l.emit(l.rec.RecordAccumulator(&recorder.AccumulatorEvent{Accumulator: numeric.Clone(acc)}), "accumulator update")
	return acc
}

func (l *Ledger) emit(err error, kind string) {
	if err != nil {
		log.Printf("[ERROR] record %s event: %v", kind, err)
	}
}
