package model

import "math/big"

// Proposal is a governance proposal. Created once, mutated only by voting
// before the deadline and by a single execution after it.
type Proposal struct {
	ID          uint64
	Description string
	Deadline    int64 // unix seconds; voting closes at this instant
	YesWeight   *big.Int
	NoWeight    *big.Int
	Executed    bool
	Passed      bool
	Voters      map[Account]bool
}

// ProposalStatus is a read-only copy of a proposal handed to callers.
type ProposalStatus struct {
	ID          uint64
	Description string
	Deadline    int64
	YesWeight   *big.Int
	NoWeight    *big.Int
	Executed    bool
	Passed      bool
	Voters      int
}
