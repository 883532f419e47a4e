package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/mudforge/pkg/replicator"
	"github.com/cuemby/mudforge/pkg/store"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage a mudforge Raft cluster",
}

var clusterBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Bootstrap a new single-node cluster",
	Long: `Bootstrap initializes a fresh Raft cluster with this node as the
only voter. Additional nodes join it with "mudforge cluster join".

This only sets up consensus state; run "mudforge serve" afterward to
actually load universes and start scheduling commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetString("node-id")
		bindAddr, _ := cmd.Flags().GetString("bind-addr")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		fmt.Println("Bootstrapping mudforge cluster...")
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
		if err := rep.Bootstrap(); err != nil {
			return fmt.Errorf("bootstrap cluster: %w", err)
		}
		defer rep.Shutdown()

		fmt.Println("✓ Cluster bootstrapped successfully")
		fmt.Println("Run 'mudforge serve' on this node to begin scheduling commands.")
		return nil
	},
}

var clusterTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a join token for a new node (run against a live leader)",
	Long: `token does not mint a token itself: join tokens are issued by the
process that is currently serving as Raft leader, and there is no
separate manager process to connect to. "mudforge serve" prints a join
token at startup when its node is leader; this subcommand only reports
that and exists for parity with the rest of the cluster group.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("token issuance requires a running leader process; 'mudforge serve' prints a join token at startup when its node is leader")
	},
}

var clusterJoinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join this node to an existing cluster as a Raft voter",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetString("node-id")
		bindAddr, _ := cmd.Flags().GetString("bind-addr")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		leader, _ := cmd.Flags().GetString("leader")
		token, _ := cmd.Flags().GetString("token")

		if leader == "" {
			return fmt.Errorf("--leader is required")
		}
		if token == "" {
			return fmt.Errorf("--token is required")
		}

		fmt.Println("Joining mudforge cluster...")
		fmt.Printf("  Node ID: %s\n", nodeID)
		fmt.Printf("  Bind Address: %s\n", bindAddr)
		fmt.Printf("  Leader: %s\n", leader)

		st, err := store.Open(dataDir + "/mudforge.db")
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		rep, err := replicator.New(replicator.Config{NodeID: nodeID, BindAddr: bindAddr, DataDir: dataDir}, st)
		if err != nil {
			return fmt.Errorf("create replicator: %w", err)
		}
		if err := rep.Join(leader, token); err != nil {
			return fmt.Errorf("join cluster: %w", err)
		}
		defer rep.Shutdown()

		fmt.Println("✓ Joined cluster. Run 'mudforge serve' on this node to begin scheduling commands.")
		return nil
	},
}

var clusterInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display this node's view of the Raft cluster",
	Long: `info opens the local Raft state directly (it does not dial a
remote node) and reports the server set and leadership as this node
currently sees it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetString("node-id")
		bindAddr, _ := cmd.Flags().GetString("bind-addr")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		st, err := store.Open(dataDir + "/mudforge.db")
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		rep, err := replicator.New(replicator.Config{NodeID: nodeID, BindAddr: bindAddr, DataDir: dataDir}, st)
		if err != nil {
			return fmt.Errorf("create replicator: %w", err)
		}
		defer rep.Shutdown()

		servers, err := rep.GetClusterServers()
		if err != nil {
			return fmt.Errorf("get cluster servers: %w", err)
		}

		fmt.Println("Cluster Information:")
		fmt.Printf("  Is Leader: %v\n", rep.IsLeader())
		fmt.Printf("  Leader Address: %s\n", rep.LeaderAddr())
		fmt.Printf("  Servers: %d\n", len(servers))
		fmt.Println()
		for _, srv := range servers {
			fmt.Printf("  - ID: %s\n", srv.ID)
			fmt.Printf("    Address: %s\n", srv.Address)
			fmt.Printf("    Suffrage: %v\n", srv.Suffrage)
			fmt.Println()
		}
		return nil
	},
}

func init() {
	clusterCmd.AddCommand(clusterBootstrapCmd)
	clusterCmd.AddCommand(clusterJoinCmd)
	clusterCmd.AddCommand(clusterTokenCmd)
	clusterCmd.AddCommand(clusterInfoCmd)

	clusterBootstrapCmd.Flags().String("node-id", "node-1", "Unique node ID")
	clusterBootstrapCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Address for Raft communication")
	clusterBootstrapCmd.Flags().String("data-dir", "./mudforge-data", "Data directory for cluster state")

	clusterJoinCmd.Flags().String("node-id", "node-2", "Unique node ID")
	clusterJoinCmd.Flags().String("bind-addr", "127.0.0.1:7947", "Address for Raft communication")
	clusterJoinCmd.Flags().String("data-dir", "./mudforge-data-2", "Data directory for cluster state")
	clusterJoinCmd.Flags().String("leader", "", "Leader node's HTTP join address (e.g. http://127.0.0.1:9090)")
	clusterJoinCmd.Flags().String("token", "", "Join token issued by the leader")
	_ = clusterJoinCmd.MarkFlagRequired("leader")
	_ = clusterJoinCmd.MarkFlagRequired("token")

	clusterInfoCmd.Flags().String("node-id", "node-1", "Unique node ID")
	clusterInfoCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Address for Raft communication")
	clusterInfoCmd.Flags().String("data-dir", "./mudforge-data", "Data directory for cluster state")
}
