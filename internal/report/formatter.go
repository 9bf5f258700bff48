// Package report renders pool and proposal state into log-friendly text.
package report

import (
	"fmt"
	"strings"
	"time"

	"StakeSentinel/internal/model"
)

// FormatPoolStatus formats the reward pool state for display.
func FormatPoolStatus(state model.PoolState) string {
	var b strings.Builder
	b.WriteString("pool status | ")
	b.WriteString(fmt.Sprintf("staked=%s ", state.TotalStaked))
	b.WriteString(fmt.Sprintf("rate=%s/s ", state.RewardRate))
	b.WriteString(fmt.Sprintf("accumulator=%s ", state.Accumulator))
	b.WriteString(fmt.Sprintf("stakers=%d ", state.Stakers))
	b.WriteString(fmt.Sprintf("updated=%s", time.Unix(state.LastUpdateTime, 0).UTC().Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatProposalStatus formats a proposal for display.
func FormatProposalStatus(status model.ProposalStatus) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("proposal #%d %q | ", status.ID, status.Description))
	b.WriteString(fmt.Sprintf("yes=%s no=%s voters=%d | ", status.YesWeight, status.NoWeight, status.Voters))
	switch {
	case status.Executed && status.Passed:
		b.WriteString("executed: passed")
	case status.Executed:
		b.WriteString("executed: failed")
	default:
		b.WriteString(fmt.Sprintf("open until %s", time.Unix(status.Deadline, 0).UTC().Format("2006-01-02 15:04:05")))
	}
	return b.String()
}
