package recorder

import (
	"math/big"

	"StakeSentinel/internal/model"
)

// DepositEvent records a stake transfer into the pool.
type DepositEvent struct {
	Account model.Account
	Amount  *big.Int
}

// WithdrawEvent records a stake transfer out of the pool.
type WithdrawEvent struct {
	Account model.Account
	Amount  *big.Int
}

// ClaimEvent records a reward payout issued to an account.
type ClaimEvent struct {
	Account model.Account
	Amount  *big.Int
}

// AccumulatorEvent records a new value of the pool accumulator.
type AccumulatorEvent struct {
	Accumulator *big.Int
}

// RateChangeEvent records a reward rate change.
type RateChangeEvent struct {
	Old *big.Int
	New *big.Int
}

// ProposalEvent records the creation of a governance proposal.
type ProposalEvent struct {
	ID          uint64
	Description string
	Deadline    int64
}

// VoteEvent records a cast vote and the weight it carried.
type VoteEvent struct {
	ProposalID uint64
	Voter      model.Account
	Support    bool
	Weight     *big.Int
}

// ExecutionEvent records the finalization of a proposal.
type ExecutionEvent struct {
	ProposalID uint64
	Passed     bool
}

// Recorder persists the append-only event log consumed by off-chain
// observers. Recorder failures are reported to the caller but never affect
// engine state.
type Recorder interface {
	RecordDeposit(evt *DepositEvent) error
	RecordWithdrawal(evt *WithdrawEvent) error
	RecordClaim(evt *ClaimEvent) error
	RecordAccumulator(evt *AccumulatorEvent) error
	RecordRateChange(evt *RateChangeEvent) error
	RecordProposal(evt *ProposalEvent) error
	RecordVote(evt *VoteEvent) error
	RecordExecution(evt *ExecutionEvent) error
	Close() error
}
