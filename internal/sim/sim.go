// Package sim drives a scripted workload through the engine: generated
// accounts deposit, accrue rewards, claim, and vote on a proposal. Used for
// demos and soak runs; it exercises every public operation end to end.
package sim

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"StakeSentinel/internal/governance"
	"StakeSentinel/internal/model"
	"StakeSentinel/internal/report"
	"StakeSentinel/internal/rewards"
	"StakeSentinel/internal/vault"

	"github.com/google/uuid"
)

// Options configures a simulation run.
type Options struct {
	Accounts     int
	Deposit      *big.Int // per-account deposit in base units
	VotingPeriod time.Duration
	AccrualWait  time.Duration // pause between phases so rewards accrue
}

// Run executes the scripted workload until it finishes or ctx is cancelled.
func Run(ctx context.Context, rl *rewards.Ledger, gr *governance.Registry, v *vault.Memory, opts Options) error {
	if opts.Accounts <= 0 {
		opts.Accounts = 3
	}
	if opts.AccrualWait <= 0 {
		opts.AccrualWait = 2 * time.Second
	}

	accounts := make([]model.Account, opts.Accounts)
	for i := range accounts {
		accounts[i] = model.Account("sim-" + uuid.NewString())
	}

	// Phase 1: fund and stake.
	for i, acct := range accounts {
		v.Credit(acct, opts.Deposit)
		// Stagger stakes so shares differ across accounts.
		amount := new(big.Int).Rsh(opts.Deposit, uint(i%3))
		if err := rl.Deposit(acct, amount); err != nil {
			return fmt.Errorf("sim deposit for %q: %w", acct, err)
		}
		log.Printf("[INFO] sim: %s deposited %s", acct, amount)
	}
	log.Printf("[INFO] %s", report.FormatPoolStatus(rl.PoolStatus()))

	if err := wait(ctx, opts.AccrualWait); err != nil {
		return err
	}

	// Phase 2: claim accrued rewards; claimed balances become voting power.
	for _, acct := range accounts {
		claimed, err := rl.Claim(acct)
		if err != nil {
			return fmt.Errorf("sim claim for %q: %w", acct, err)
		}
		log.Printf("[INFO] sim: %s claimed %s", acct, claimed)
	}

	// Phase 3: propose and vote with the claimed balances.
	id, err := gr.CreateProposal(accounts[0], "raise the emission rate", opts.VotingPeriod)
	if err != nil {
		return fmt.Errorf("sim create proposal: %w", err)
	}
	for i, acct := range accounts {
		if err := gr.Vote(acct, id, i%2 == 0); err != nil {
			return fmt.Errorf("sim vote for %q: %w", acct, err)
		}
	}
	status, err := gr.GetStatus(id)
	if err != nil {
		return fmt.Errorf("sim status: %w", err)
	}
	log.Printf("[INFO] sim: %s", report.FormatProposalStatus(status))

	if err := wait(ctx, opts.AccrualWait); err != nil {
		return err
	}

	// Phase 4: partial unstake, leaving the pool running.
	for _, acct := range accounts {
		staked := rl.Staked(acct)
		half := new(big.Int).Rsh(staked, 1)
		if half.Sign() == 0 {
			continue
		}
		if err := rl.Withdraw(acct, half); err != nil {
			return fmt.Errorf("sim withdraw for %q: %w", acct, err)
		}
		log.Printf("[INFO] sim: %s withdrew %s, pending reward %s", acct, half, rl.PendingReward(acct))
	}
	log.Printf("[INFO] %s", report.FormatPoolStatus(rl.PoolStatus()))
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
