package model

import "math/big"

// Account identifies a participant. The empty string is the zero identity
// and is never a valid participant.
type Account string

// ZeroAccount is the reserved zero identity.
const ZeroAccount Account = ""

// StakeRecord tracks one account's position in the reward pool.
type StakeRecord struct {
	// Staked is the amount of the staking resource deposited by the account.
	Staked *big.Int
	// RewardPerUnitPaid is the value of the pool accumulator at the
	// account's last settlement.
	RewardPerUnitPaid *big.Int
	// Unclaimed is the reward amount settled but not yet claimed.
	Unclaimed *big.Int
}

// NewStakeRecord returns a zeroed stake record.
func NewStakeRecord() *StakeRecord {
	return &StakeRecord{
		Staked:            new(big.Int),
		RewardPerUnitPaid: new(big.Int),
		Unclaimed:         new(big.Int),
	}
}

// PoolState is a point-in-time copy of the reward pool's global state.
type PoolState struct {
	TotalStaked    *big.Int
	RewardRate     *big.Int // reward units emitted per second, pool-wide
	Accumulator    *big.Int // scaled reward-per-staked-unit, non-decreasing
	LastUpdateTime int64    // unix seconds
	Stakers        int      // accounts with a stake record
}
