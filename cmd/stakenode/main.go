package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StakeSentinel/internal/config"
	"StakeSentinel/internal/governance"
	"StakeSentinel/internal/ledger"
	"StakeSentinel/internal/model"
	"StakeSentinel/internal/numeric"
	"StakeSentinel/internal/recorder"
	"StakeSentinel/internal/rewards"
	"StakeSentinel/internal/scheduler"
	"StakeSentinel/internal/sim"
	"StakeSentinel/internal/vault"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StakeSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	owner := model.Account(cfg.Accounts.Owner)
	authority := model.Account(cfg.Accounts.Authority)
	identity := model.Account(cfg.Rewards.Identity)

	// Init balance ledger and register the reward ledger as its issuer.
	bl, err := ledger.New(owner)
	if err != nil {
		log.Fatalf("[FATAL] init balance ledger: %v", err)
	}
	if err := bl.SetIssuer(owner, identity); err != nil {
		log.Fatalf("[FATAL] register issuer: %v", err)
	}

	// Init reward ledger
	rate, err := numeric.Parse(cfg.Rewards.Rate)
	if err != nil {
		log.Fatalf("[FATAL] parse reward rate: %v", err)
	}
	v := vault.NewMemory()
	rl, err := rewards.New(identity, authority, bl, v, rate, rec)
	if err != nil {
		log.Fatalf("[FATAL] init reward ledger: %v", err)
	}

	// Init governance registry
	gr, err := governance.New(authority, bl, rec)
	if err != nil {
		log.Fatalf("[FATAL] init proposal registry: %v", err)
	}
	if err := gr.SetMinimumVotingPeriod(authority, cfg.Governance.MinVotingPeriod); err != nil {
		log.Fatalf("[FATAL] set minimum voting period: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(rl, gr, cfg.Governance.AutoFinalize)
	if err := sched.RegisterAll(cfg.Schedule.CheckpointCron, cfg.Schedule.SweepCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run the scripted workload on start
	if os.Getenv("SIMULATE_ON_START") == "true" {
		deposit, err := numeric.Parse(cfg.Sim.Deposit)
		if err != nil {
			log.Fatalf("[FATAL] parse sim deposit: %v", err)
		}
		go func() {
			if err := sim.Run(ctx, rl, gr, v, sim.Options{
				Accounts:     cfg.Sim.Accounts,
				Deposit:      deposit,
				VotingPeriod: cfg.Governance.MinVotingPeriod,
			}); err != nil {
				log.Printf("[ERROR] simulation: %v", err)
			}
		}()
	}

	log.Println("[INFO] StakeSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] StakeSentinel stopped")
}
