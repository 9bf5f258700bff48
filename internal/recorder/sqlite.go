package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the event log to a SQLite database, one table per
// event kind. Amounts are stored as base-10 strings since they exceed the
// integer range SQLite handles natively.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (observers read while
	// the engine writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deposits (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			account   TEXT NOT NULL,
			amount    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_ts ON deposits(timestamp)`,

		`CREATE TABLE IF NOT EXISTS withdrawals (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			account   TEXT NOT NULL,
			amount    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_ts ON withdrawals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS reward_claims (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			account   TEXT NOT NULL,
			amount    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_ts ON reward_claims(timestamp)`,

		`CREATE TABLE IF NOT EXISTS accumulator_updates (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			accumulator TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accum_ts ON accumulator_updates(timestamp)`,

		`CREATE TABLE IF NOT EXISTS rate_changes (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			old_rate  TEXT NOT NULL,
			new_rate  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_ts ON rate_changes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS proposals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			proposal_id INTEGER NOT NULL,
			description TEXT,
			deadline    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_ts ON proposals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS votes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			proposal_id INTEGER NOT NULL,
			voter       TEXT NOT NULL,
			support     INTEGER NOT NULL,
			weight      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_ts ON votes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS executions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			proposal_id INTEGER NOT NULL,
			passed      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_ts ON executions(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func amountText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (r *SQLiteRecorder) RecordDeposit(evt *DepositEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deposits (timestamp, account, amount) VALUES (?,?,?)`,
		time.Now().Unix(), string(evt.Account), amountText(evt.Amount))
	return err
}

func (r *SQLiteRecorder) RecordWithdrawal(evt *WithdrawEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO withdrawals (timestamp, account, amount) VALUES (?,?,?)`,
		time.Now().Unix(), string(evt.Account), amountText(evt.Amount))
	return err
}

func (r *SQLiteRecorder) RecordClaim(evt *ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO reward_claims (timestamp, account, amount) VALUES (?,?,?)`,
		time.Now().Unix(), string(evt.Account), amountText(evt.Amount))
	return err
}

func (r *SQLiteRecorder) RecordAccumulator(evt *AccumulatorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO accumulator_updates (timestamp, accumulator) VALUES (?,?)`,
		time.Now().Unix(), amountText(evt.Accumulator))
	return err
}

func (r *SQLiteRecorder) RecordRateChange(evt *RateChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO rate_changes (timestamp, old_rate, new_rate) VALUES (?,?,?)`,
		time.Now().Unix(), amountText(evt.Old), amountText(evt.New))
	return err
}

func (r *SQLiteRecorder) RecordProposal(evt *ProposalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO proposals (timestamp, proposal_id, description, deadline) VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.ID, evt.Description, evt.Deadline)
	return err
}

func (r *SQLiteRecorder) RecordVote(evt *VoteEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	support := 0
	if evt.Support {
		support = 1
	}
	_, err := r.db.Exec(`INSERT INTO votes (timestamp, proposal_id, voter, support, weight) VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.ProposalID, string(evt.Voter), support, amountText(evt.Weight))
	return err
}

func (r *SQLiteRecorder) RecordExecution(evt *ExecutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	passed := 0
	if evt.Passed {
		passed = 1
	}
	_, err := r.db.Exec(`INSERT INTO executions (timestamp, proposal_id, passed) VALUES (?,?,?)`,
		time.Now().Unix(), evt.ProposalID, passed)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
