package rewards

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"StakeSentinel/internal/ledger"
	"StakeSentinel/internal/model"
	"StakeSentinel/internal/numeric"
	"StakeSentinel/internal/recorder"
)

const (
	owner     = model.Account("owner")
	authority = model.Account("authority")
	identity  = model.Account("reward-ledger")
	alice     = model.Account("alice")
	bob       = model.Account("bob")
	carol     = model.Account("carol")

	day = int64(86400)
)

// clock is a controllable time source for the ledger under test.
type clock struct{ t int64 }

func (c *clock) now() time.Time  { return time.Unix(c.t, 0) }
func (c *clock) advance(d int64) { c.t += d }

// stubVault accepts every transfer unless told to fail.
type stubVault struct {
	failIn  bool
	failOut bool
}

func (v *stubVault) TransferIn(_ model.Account, _ *big.Int) error {
	if v.failIn {
		return fmt.Errorf("vault offline")
	}
	return nil
}

func (v *stubVault) TransferOut(_ model.Account, _ *big.Int) error {
	if v.failOut {
		return fmt.Errorf("vault offline")
	}
	return nil
}

// failIssuer rejects every issue call.
type failIssuer struct{}

func (failIssuer) Issue(_, _ model.Account, _ *big.Int) error {
	return fmt.Errorf("issuer unavailable")
}

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Scale)
}

func newTestLedger(t *testing.T, rate *big.Int) (*Ledger, *clock, *ledger.BalanceLedger, *stubVault) {
	t.Helper()
	bl, err := ledger.New(owner)
	if err != nil {
		t.Fatalf("balance ledger: %v", err)
	}
	if err := bl.SetIssuer(owner, identity); err != nil {
		t.Fatalf("set issuer: %v", err)
	}
	v := &stubVault{}
	l, err := New(identity, authority, bl, v, rate, nil)
	if err != nil {
		t.Fatalf("reward ledger: %v", err)
	}
	c := &clock{}
	l.now = c.now
	l.lastUpdate = c.t
	return l, c, bl, v
}

func TestDeposit_InvalidAmount(t *testing.T) {
	l, _, _, _ := newTestLedger(t, big.NewInt(1000))
	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		if err := l.Deposit(alice, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Deposit(%v): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestPendingReward_SingleStakerOneDay(t *testing.T) {
	// 1.0 unit staked at t=0 with rate 0.0000115 units/sec: after a day the
	// pending reward is 0.9936 units exactly (the division is exact here).
	rate, _ := new(big.Int).SetString("11500000000000", 10)
	l, c, _, _ := newTestLedger(t, rate)

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(day)

	want, _ := new(big.Int).SetString("993600000000000000", 10)
	if got := l.PendingReward(alice); got.Cmp(want) != 0 {
		t.Errorf("pending = %s, want %s", got, want)
	}
}

func TestRateChangeFairness(t *testing.T) {
	// Stake 1 unit from t=0, rate r1 until T, r2 after: pending at 2T must
	// be exactly r1*T + r2*T regardless of when the change lands.
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(day)
	if err := l.SetRewardRate(authority, big.NewInt(2000)); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	c.advance(day)

	want := big.NewInt(1000*day + 2000*day)
	if got := l.PendingReward(alice); got.Cmp(want) != 0 {
		t.Errorf("pending = %s, want %s", got, want)
	}
}

func TestPendingReward_ShareChangesAcrossDays(t *testing.T) {
	// Alice stakes 2 units, bob 1 unit. After a day alice withdraws 1 unit
	// and carol stakes 1 unit, keeping the pool at 3 units. Alice's pending
	// after day two must be day one at a 2/3 share plus day two at a 1/3
	// share, as the accumulator method computes it.
	l, c, _, _ := newTestLedger(t, big.NewInt(3000))

	if err := l.Deposit(alice, units(2)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if err := l.Deposit(bob, units(1)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}
	c.advance(day)
	if err := l.Withdraw(alice, units(1)); err != nil {
		t.Fatalf("alice withdraw: %v", err)
	}
	if err := l.Deposit(carol, units(1)); err != nil {
		t.Fatalf("carol deposit: %v", err)
	}
	c.advance(day)

	dayOne := big.NewInt(3000 * day * 2 / 3)
	dayTwo := big.NewInt(3000 * day / 3)
	want := new(big.Int).Add(dayOne, dayTwo)
	if got := l.PendingReward(alice); got.Cmp(want) != 0 {
		t.Errorf("alice pending = %s, want %s", got, want)
	}
}

func TestStakeSumInvariant(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))

	steps := []struct {
		account model.Account
		deposit bool
		amount  *big.Int
	}{
		{alice, true, units(5)},
		{bob, true, units(3)},
		{alice, false, units(2)},
		{carol, true, units(7)},
		{bob, false, units(3)},
		{alice, false, units(3)},
	}
	for i, st := range steps {
		c.advance(3600)
		var err error
		if st.deposit {
			err = l.Deposit(st.account, st.amount)
		} else {
			err = l.Withdraw(st.account, st.amount)
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}

		sum := new(big.Int)
		l.mu.Lock()
		for _, rec := range l.accounts {
			sum.Add(sum, rec.Staked)
		}
		total := numeric.Clone(l.totalStaked)
		l.mu.Unlock()
		if sum.Cmp(total) != 0 {
			t.Fatalf("step %d: sum(staked) = %s, totalStaked = %s", i, sum, total)
		}
	}
}

func TestAccumulator_NonDecreasing(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))

	prev := new(big.Int)
	check := func(op string) {
		l.mu.Lock()
		acc := numeric.Clone(l.accumulator)
		l.mu.Unlock()
		if acc.Cmp(prev) < 0 {
			t.Fatalf("%s: accumulator decreased from %s to %s", op, prev, acc)
		}
		prev = acc
	}

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	check("deposit")
	c.advance(100)
	if err := l.Deposit(bob, units(4)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	check("deposit")
	c.advance(100)
	if err := l.SetRewardRate(authority, big.NewInt(5)); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	check("set rate")
	c.advance(100)
	if err := l.Withdraw(bob, units(4)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	check("withdraw")
	c.advance(100)
	if _, err := l.Claim(alice); err != nil {
		t.Fatalf("claim: %v", err)
	}
	check("claim")
}

func TestSettle_Idempotent(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(500)

	l.mu.Lock()
	l.accrueLocked(c.t)
	first := l.settleLocked(alice)
	unclaimed := numeric.Clone(first.Unclaimed)
	paid := numeric.Clone(first.RewardPerUnitPaid)

	second := l.settleLocked(alice)
	if second.Unclaimed.Cmp(unclaimed) != 0 {
		t.Errorf("second settle changed unclaimed: %s -> %s", unclaimed, second.Unclaimed)
	}
	if second.RewardPerUnitPaid.Cmp(paid) != 0 {
		t.Errorf("second settle changed snapshot: %s -> %s", paid, second.RewardPerUnitPaid)
	}
	l.mu.Unlock()
}

func TestWithdraw_Insufficient(t *testing.T) {
	l, _, _, _ := newTestLedger(t, big.NewInt(1000))

	if err := l.Withdraw(alice, units(1)); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := l.Withdraw(alice, units(2)); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
}

func TestWithdraw_TransferFailureRollsBack(t *testing.T) {
	l, c, _, v := newTestLedger(t, big.NewInt(1000))

	if err := l.Deposit(alice, units(3)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(1000)

	before := l.PoolStatus()
	pendingBefore := l.PendingReward(alice)
	stakedBefore := l.Staked(alice)

	v.failOut = true
	err := l.Withdraw(alice, units(1))
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	after := l.PoolStatus()
	if after.TotalStaked.Cmp(before.TotalStaked) != 0 {
		t.Errorf("totalStaked changed: %s -> %s", before.TotalStaked, after.TotalStaked)
	}
	if after.Accumulator.Cmp(before.Accumulator) != 0 {
		t.Errorf("accumulator changed: %s -> %s", before.Accumulator, after.Accumulator)
	}
	if after.LastUpdateTime != before.LastUpdateTime {
		t.Errorf("lastUpdate changed: %d -> %d", before.LastUpdateTime, after.LastUpdateTime)
	}
	if got := l.Staked(alice); got.Cmp(stakedBefore) != 0 {
		t.Errorf("staked changed: %s -> %s", stakedBefore, got)
	}
	if got := l.PendingReward(alice); got.Cmp(pendingBefore) != 0 {
		t.Errorf("pending changed: %s -> %s", pendingBefore, got)
	}

	// The same withdrawal succeeds once the vault recovers.
	v.failOut = false
	if err := l.Withdraw(alice, units(1)); err != nil {
		t.Fatalf("retry withdraw: %v", err)
	}
}

func TestDeposit_TransferFailureRollsBack(t *testing.T) {
	l, _, _, v := newTestLedger(t, big.NewInt(1000))

	v.failIn = true
	if err := l.Deposit(alice, units(1)); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if got := l.TotalStaked(); got.Sign() != 0 {
		t.Errorf("totalStaked = %s after failed deposit, want 0", got)
	}
	if got := l.Staked(alice); got.Sign() != 0 {
		t.Errorf("staked = %s after failed deposit, want 0", got)
	}
}

func TestClaim_PaysThroughBalanceLedger(t *testing.T) {
	l, c, bl, _ := newTestLedger(t, big.NewInt(1000))

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(1000)

	want := l.PendingReward(alice)
	claimed, err := l.Claim(alice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Cmp(want) != 0 {
		t.Errorf("claimed = %s, want %s", claimed, want)
	}
	if got := bl.BalanceOf(alice); got.Cmp(want) != 0 {
		t.Errorf("issued balance = %s, want %s", got, want)
	}
	if got := l.PendingReward(alice); got.Sign() != 0 {
		t.Errorf("pending after claim = %s, want 0", got)
	}

	// Nothing accrued since the claim.
	if _, err := l.Claim(alice); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestClaim_NothingToClaim(t *testing.T) {
	l, _, _, _ := newTestLedger(t, big.NewInt(1000))
	if _, err := l.Claim(alice); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestClaim_IssueFailureRollsBack(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))
	l.issuer = failIssuer{}

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(1000)

	pendingBefore := l.PendingReward(alice)
	if _, err := l.Claim(alice); err == nil {
		t.Fatal("expected claim to fail")
	}
	if got := l.PendingReward(alice); got.Cmp(pendingBefore) != 0 {
		t.Errorf("pending changed after failed claim: %s -> %s", pendingBefore, got)
	}
}

func TestSetRewardRate_Guards(t *testing.T) {
	l, _, _, _ := newTestLedger(t, big.NewInt(1000))

	if err := l.SetRewardRate(alice, big.NewInt(5)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := l.SetRewardRate(authority, big.NewInt(0)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if err := l.SetRewardRate(authority, nil); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestAccrue_ZeroElapsedAndBackwardClock(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))

	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(100)
	first := l.Checkpoint()

	// No time passed: accumulator must not move.
	if got := l.Checkpoint(); got.Cmp(first) != 0 {
		t.Errorf("zero-elapsed accrual moved accumulator: %s -> %s", first, got)
	}

	// Clock moved backward: treated as an environment fault, no mutation.
	c.advance(-50)
	if got := l.Checkpoint(); got.Cmp(first) != 0 {
		t.Errorf("backward clock moved accumulator: %s -> %s", first, got)
	}
	status := l.PoolStatus()
	if status.LastUpdateTime != 100 {
		t.Errorf("lastUpdate = %d, want 100", status.LastUpdateTime)
	}
}

func TestEmptyPool_AccruesNothing(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))

	c.advance(day)
	if got := l.RewardPerUnit(); got.Sign() != 0 {
		t.Errorf("accumulator = %s with empty pool, want 0", got)
	}

	// The gap before the first deposit yields no rewards.
	if err := l.Deposit(alice, units(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := l.PendingReward(alice); got.Sign() != 0 {
		t.Errorf("pending = %s right after first deposit, want 0", got)
	}
}

// countingRecorder tallies event emissions per kind.
type countingRecorder struct {
	recorder.NoopRecorder
	deposits, withdrawals, claims, accumulators, rates int
}

func (c *countingRecorder) RecordDeposit(_ *recorder.DepositEvent) error {
	c.deposits++
	return nil
}
func (c *countingRecorder) RecordWithdrawal(_ *recorder.WithdrawEvent) error {
	c.withdrawals++
	return nil
}
func (c *countingRecorder) RecordClaim(_ *recorder.ClaimEvent) error {
	c.claims++
	return nil
}
func (c *countingRecorder) RecordAccumulator(_ *recorder.AccumulatorEvent) error {
	c.accumulators++
	return nil
}
func (c *countingRecorder) RecordRateChange(_ *recorder.RateChangeEvent) error {
	c.rates++
	return nil
}

func TestEvents_EmittedPerOperation(t *testing.T) {
	l, c, _, _ := newTestLedger(t, big.NewInt(1000))
	rec := &countingRecorder{}
	l.rec = rec

	if err := l.Deposit(alice, units(2)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	c.advance(100)
	if err := l.Withdraw(alice, units(1)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := l.Claim(alice); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := l.SetRewardRate(authority, big.NewInt(2)); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	l.Checkpoint()

	if rec.deposits != 1 || rec.withdrawals != 1 || rec.claims != 1 || rec.rates != 1 || rec.accumulators != 1 {
		t.Errorf("event counts = %+v, want one of each", *rec)
	}
}
