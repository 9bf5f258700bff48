package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDeposit(_ *DepositEvent) error         { return nil }
func (n *NoopRecorder) RecordWithdrawal(_ *WithdrawEvent) error     { return nil }
func (n *NoopRecorder) RecordClaim(_ *ClaimEvent) error             { return nil }
func (n *NoopRecorder) RecordAccumulator(_ *AccumulatorEvent) error { return nil }
func (n *NoopRecorder) RecordRateChange(_ *RateChangeEvent) error   { return nil }
func (n *NoopRecorder) RecordProposal(_ *ProposalEvent) error       { return nil }
func (n *NoopRecorder) RecordVote(_ *VoteEvent) error               { return nil }
func (n *NoopRecorder) RecordExecution(_ *ExecutionEvent) error     { return nil }
func (n *NoopRecorder) Close() error                                { return nil }
