// Package governance implements the weighted-majority proposal registry.
// Voting power is the voter's live balance-ledger balance at the moment the
// vote is cast; it is never snapshotted at proposal creation and never
// adjusted after the fact.
package governance

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
	// ErrNotFound is returned for a proposal id that was never allocated.
	ErrNotFound = errors.New("proposal not found")
	// ErrNoVotingPower is returned when the caller's balance is zero.
	ErrNoVotingPower = errors.New("no voting power")
	// ErrPeriodTooShort is returned when the voting period is below the
	// configured minimum.
	ErrPeriodTooShort = errors.New("voting period too short")
	// ErrVotingClosed is returned for a vote at or after the deadline.
	ErrVotingClosed = errors.New("voting closed")
	// ErrVotingStillOpen is returned for an execution before the deadline.
	ErrVotingStillOpen = errors.New("voting still open")
	// ErrAlreadyVoted is returned when the caller has already voted.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrAlreadyExecuted is returned for a second execution attempt.
	ErrAlreadyExecuted = errors.New("already executed")
	// ErrForbidden is returned when the caller is not the authority.
	ErrForbidden = errors.New("forbidden")
)

// DefaultMinimumVotingPeriod is the out-of-the-box floor for voting periods.
const DefaultMinimumVotingPeriod = 24 * time.Hour

// BalanceReader is the read-only view of the balance ledger the registry
// consumes for voting power.
type BalanceReader interface {
	BalanceOf(account model.Account) *big.Int
}

// Registry owns all proposal records. Per proposal the lifecycle is
// Open -> Closed -> Executed; no transition ever reverses.
type Registry struct {
	mu        sync.Mutex
	balances  BalanceReader
	authority model.Account // may adjust the minimum voting period
	minPeriod time.Duration
	proposals []*model.Proposal
	rec       recorder.Recorder
	now       func() time.Time
}

// New creates an empty registry reading voting power from balances.
func New(authority model.Account, balances BalanceReader, rec recorder.Recorder) (*Registry, error) {
	if authority == model.ZeroAccount {
		return nil, fmt.Errorf("new registry: zero identity authority: %w", ErrForbidden)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Registry{
		balances:  balances,
		authority: authority,
		minPeriod: DefaultMinimumVotingPeriod,
		rec:       rec,
		now:       time.Now,
	}, nil
}

// CreateProposal allocates the next sequential proposal id with a deadline
// of now plus votingPeriod. The caller must hold a non-zero balance.
func (r *Registry) CreateProposal(caller model.Account, description string, votingPeriod time.Duration) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !numeric.IsPositive(r.balances.BalanceOf(caller)) {
		return 0, fmt.Errorf("create proposal: caller %q: %w", caller, ErrNoVotingPower)
	}
	if votingPeriod < r.minPeriod {
		return 0, fmt.Errorf("create proposal: period %s below minimum %s: %w", votingPeriod, r.minPeriod, ErrPeriodTooShort)
	}

	p := &model.Proposal{
		ID:          uint64(len(r.proposals)),
		Description: description,
		Deadline:    r.now().Unix() + int64(votingPeriod/time.Second),
		YesWeight:   new(big.Int),
		NoWeight:    new(big.Int),
		Voters:      make(map[model.Account]bool),
	}
	r.proposals = append(r.proposals, p)

	r.emit(r.rec.RecordProposal(&recorder.ProposalEvent{ID: p.ID, Description: p.Description, Deadline: p.Deadline}), "proposal")
	return p.ID, nil
}

// Vote records a single weighted vote per account per proposal. Weight is
// the caller's balance read at vote time; later balance changes do not
// adjust a cast vote.
func (r *Registry) Vote(caller model.Account, id uint64, support bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.proposalLocked(id)
	if err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	if r.now().Unix() >= p.Deadline {
		return fmt.Errorf("vote: proposal %d: %w", id, ErrVotingClosed)
	}
	if p.Voters[caller] {
		return fmt.Errorf("vote: proposal %d, voter %q: %w", id, caller, ErrAlreadyVoted)
	}
	weight := r.balances.BalanceOf(caller)
	if !numeric.IsPositive(weight) {
		return fmt.Errorf("vote: proposal %d, voter %q: %w", id, caller, ErrNoVotingPower)
	}

	p.Voters[caller] = true
	if support {
		p.YesWeight.Add(p.YesWeight, weight)
	} else {
		p.NoWeight.Add(p.NoWeight, weight)
	}

	r.emit(r.rec.RecordVote(&recorder.VoteEvent{ProposalID: id, Voter: caller, Support: support, Weight: weight}), "vote")
	return nil
}

// ExecuteProposal finalizes a proposal after its deadline. The outcome is a
// strict majority of yes over no weight; a tie fails. Irreversible.
func (r *Registry) ExecuteProposal(id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executeLocked(id)
}

func (r *Registry) executeLocked(id uint64) (bool, error) {
	p, err := r.proposalLocked(id)
	if err != nil {
		return false, fmt.Errorf("execute proposal: %w", err)
	}
	if r.now().Unix() < p.Deadline {
		return false, fmt.Errorf("execute proposal %d: %w", id, ErrVotingStillOpen)
	}
	if p.Executed {
		return false, fmt.Errorf("execute proposal %d: %w", id, ErrAlreadyExecuted)
	}

	p.Executed = true
	p.Passed = p.YesWeight.Cmp(p.NoWeight) > 0

	r.emit(r.rec.RecordExecution(&recorder.ExecutionEvent{ProposalID: id, Passed: p.Passed}), "execution")
	return p.Passed, nil
}

// SetMinimumVotingPeriod adjusts the floor applied to new proposals.
func (r *Registry) SetMinimumVotingPeriod(caller model.Account, d time.Duration) error {
	if caller != r.authority {
		return fmt.Errorf("set minimum voting period: caller %q is not the authority: %w", caller, ErrForbidden)
	}
	if d <= 0 {
		return fmt.Errorf("set minimum voting period: %w", ErrPeriodTooShort)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minPeriod = d
	return nil
}

// GetStatus returns a read-only copy of the proposal.
func (r *Registry) GetStatus(id uint64) (model.ProposalStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.proposalLocked(id)
	if err != nil {
		return model.ProposalStatus{}, fmt.Errorf("get status: %w", err)
	}
	return model.ProposalStatus{
		ID:          p.ID,
		Description: p.Description,
		Deadline:    p.Deadline,
		YesWeight:   numeric.Clone(p.YesWeight),
		NoWeight:    numeric.Clone(p.NoWeight),
		Executed:    p.Executed,
		Passed:      p.Passed,
		Voters:      len(p.Voters),
	}, nil
}

// HasVoted reports whether account has voted on the proposal.
func (r *Registry) HasVoted(id uint64, account model.Account) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.proposalLocked(id)
	if err != nil {
		return false, fmt.Errorf("has voted: %w", err)
	}
	return p.Voters[account], nil
}

// Count returns the number of proposals ever created.
func (r *Registry) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.proposals))
}

// FinalizeExpired executes every proposal whose deadline has passed and
// that has not been executed yet. Used by the sweep job. Returns the ids
// finalized.
func (r *Registry) FinalizeExpired() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().Unix()
	var done []uint64
	for _, p := range r.proposals {
		if p.Executed || now < p.Deadline {
			continue
		}
		if _, err := r.executeLocked(p.ID); err != nil {
			log.Printf("[ERROR] finalize proposal %d: %v", p.ID, err)
			continue
		}
		done = append(done, p.ID)
	}
	return done
}

// ExpiredUnexecuted returns the ids of proposals past their deadline that
// still await execution.
func (r *Registry) ExpiredUnexecuted() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().Unix()
	var ids []uint64
	for _, p := range r.proposals {
		if !p.Executed && now >= p.Deadline {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (r *Registry) proposalLocked(id uint64) (*model.Proposal, error) {
	if id >= uint64(len(r.proposals)) {
		return nil, fmt.Errorf("proposal %d: %w", id, ErrNotFound)
	}
	return r.proposals[id], nil
}

func (r *Registry) emit(err error, kind string) {
	if err != nil {
		log.Printf("[ERROR] record %s event: %v", kind, err)
	}
}
