package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/mudforge/pkg/cascade"
	"github.com/cuemby/mudforge/pkg/classes"
	"github.com/cuemby/mudforge/pkg/codestore"
	"github.com/cuemby/mudforge/pkg/combat"
	"github.com/cuemby/mudforge/pkg/credits"
	"github.com/cuemby/mudforge/pkg/hostapi"
	"github.com/cuemby/mudforge/pkg/log"
	"github.com/cuemby/mudforge/pkg/metrics"
	"github.com/cuemby/mudforge/pkg/objectgraph"
	"github.com/cuemby/mudforge/pkg/permissions"
	"github.com/cuemby/mudforge/pkg/replicator"
	"github.com/cuemby/mudforge/pkg/router"
	"github.com/cuemby/mudforge/pkg/sandbox"
	"github.com/cuemby/mudforge/pkg/scheduler"
	"github.com/cuemby/mudforge/pkg/store"
	"github.com/cuemby/mudforge/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a mudforge node: load universes and start scheduling commands",
	Long: `serve opens the node's store, attaches to its already-bootstrapped
or joined Raft replicator, builds one Scheduler per universe found in
the store, and starts the metrics/health HTTP server and the cluster
join endpoint.

A node must already have been bootstrapped ("mudforge cluster
bootstrap") or joined ("mudforge cluster join") before serve is run
against its data directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("node-id", "node-1", "Unique node ID")
	serveCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Address for Raft communication")
	serveCmd.Flags().String("data-dir", "./mudforge-data", "Data directory for cluster state")
	serveCmd.Flags().String("admin-addr", "127.0.0.1:9090", "Address for metrics/health/join HTTP endpoints")
	serveCmd.Flags().Duration("join-token-ttl", 24*time.Hour, "Validity window for tokens minted by the admin endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	nodeID, _ := cmd.Flags().GetString("node-id")
	bindAddr, _ := cmd.Flags().GetString("bind-addr")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	adminAddr, _ := cmd.Flags().GetString("admin-addr")
	tokenTTL, _ := cmd.Flags().GetDuration("join-token-ttl")

	fmt.Println("Starting mudforge node...")
	fmt.Printf("  Node ID: %s\n", nodeID)
	fmt.Printf("  Raft Address: %s\n", bindAddr)
	fmt.Printf("  Data Directory: %s\n", dataDir)

	st, err := store.Open(dataDir + "/mudforge.db")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	rep, err := replicator.New(replicator.Config{NodeID: nodeID, BindAddr: bindAddr, DataDir: dataDir}, st)
	if err != nil {
		return fmt.Errorf("create replicator: %w", err)
	}
	if err := rep.Attach(); err != nil {
		return fmt.Errorf("attach to raft state (did you run 'mudforge cluster bootstrap' or 'join' first?): %w", err)
	}
	fmt.Println("✓ Replicator attached")

	universes, err := st.AllUniverses()
	if err != nil {
		return fmt.Errorf("load universes: %w", err)
	}
	if len(universes) == 0 {
		fmt.Println("  (no universes found yet — create one with the wizard eval surface once a node is leader)")
	}

	// One CodeStore per process: content-addressed source is keyed by
	// hash alone, not scoped to a universe, so its GC sweep only needs
	// to run once regardless of how many universes this node serves.
	code := codestore.New(st)
	code.Start()
	defer code.Stop()

	schedulers := make([]*scheduler.Scheduler, 0, len(universes))
	for _, u := range universes {
		sched := buildScheduler(u, st, rep, code)
		sched.Start()
		schedulers = append(schedulers, sched)
		fmt.Printf("✓ Scheduler started for universe %q\n", u.ID)
	}

	metricsCollector := metrics.NewCollector(rep, st)
	metricsCollector.Start()
	fmt.Println("✓ Metrics collector started")

	metrics.SetVersion(Version)
	metrics.RegisterComponent("raft", true, "attached")
	metrics.RegisterComponent("store", true, "ready")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	mux.HandleFunc("/raft/join", rep.JoinHandler())

	errCh := make(chan error, 1)
	go func() {
		if err := http.ListenAndServe(adminAddr, mux); err != nil {
			errCh <- fmt.Errorf("admin server error: %w", err)
		}
	}()
	fmt.Printf("✓ Admin endpoint: http://%s/{metrics,health,ready,live,raft/join}\n", adminAddr)

	if rep.IsLeader() {
		if token, err := rep.IssueJoinToken(tokenTTL); err == nil {
			fmt.Println()
			fmt.Println("This node is leader. Join token for new voters (valid", tokenTTL, "):")
			fmt.Printf("  %s\n", token)
			fmt.Println()
			fmt.Println("To add a node:")
			fmt.Printf("  mudforge cluster join --leader http://%s --token %s\n", adminAddr, token)
		}
	}

	fmt.Println()
	fmt.Println("Node is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
	}

	for _, sched := range schedulers {
		sched.Stop()
	}
	metricsCollector.Stop()
	if err := rep.Shutdown(); err != nil {
		return fmt.Errorf("shutdown replicator: %w", err)
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}

// buildScheduler wires one universe's dependency graph — object graph,
// class registry, credit ledger, permission checker, router, sandbox, and
// host API — into a running Scheduler committing through rep. Every
// universe gets an independent instance of each of these; only the
// process-wide code store passed in as code is shared across universes.
func buildScheduler(u *types.Universe, st *store.Store, rep *replicator.Replicator, code *codestore.CodeStore) *scheduler.Scheduler {
	logger := log.WithComponent("serve").With().Str("universe", u.ID).Logger()

	reg := classes.New(u.ID, st)
	graph := objectgraph.New(u.ID, st, reg)

	perms := permissions.New(u.ID, st)
	rtr := router.New(graph)
	led := credits.New(u.ID, st)
	cas := cascade.New(graph, reg)
	actions := hostapi.NewActionTable()

	host := &hostapi.API{
		Universe: u.ID,
		Graph:    graph,
		Classes:  reg,
		Code:     code,
		Perms:    perms,
		Actions:  actions,
		Router:   rtr,
		Credits:  led,
		Cascade:  cas,
		Accounts: st,
		Grants:   st,
		Clock:    hostapi.NewSystemClock(),
	}

	resolver := newVerbResolver(u.ID, graph, actions, code)
	sched := scheduler.New(u.ID, resolver, rep, sandbox.New(sandbox.DefaultLimits), host, rtr)
	host.Timers = sched
	sched.SetCombatEngine(combat.NewEngine(graph, reg, pvpPolicy(u)))

	// A real deployment bridges its SessionGateway (telnet/websocket/
	// whatever) to this universe by calling sched.Submit(actorID, text)
	// for every framed command it admits — see pkg/gateway.

	logger.Info().Msg("universe wired")
	return sched
}

// pvpPolicy reads combat.PvPPolicy from the universe's config, defaulting
// to open PvP (spec §4.9 names disabled/arena_only/flagged/open; a
// universe that never set one gets the most permissive).
func pvpPolicy(u *types.Universe) combat.PvPPolicy {
	if v, ok := u.Config["pvp_policy"].(string); ok && v != "" {
		return combat.PvPPolicy(v)
	}
	return combat.PvPOpen
}
