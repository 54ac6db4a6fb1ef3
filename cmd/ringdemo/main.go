package main

import (
	"fmt"
	"log/slog"
	"os"

	hashring "go-hashring"

	"github.com/eiannone/keyboard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	replicas  int
	seedCount int
	verbose   bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "ringdemo",
		Short: "An interactive consistent hashing ring demo",
		Long: `Ringdemo drives the go-hashring library from the terminal.
It seeds a ring with a few nodes and lets you add and remove nodes
interactively while watching positions, ranges, and key ownership move.`,
		RunE: runDemo,
	}

	rootCmd.Flags().IntVar(&replicas, "replicas", 10, "Number of virtual nodes per physical node")
	rootCmd.Flags().IntVar(&seedCount, "seed", 3, "Number of nodes to seed the ring with")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Log rebalancing activity to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	var opts = []hashring.Option[string]{
		hashring.WithReplicas[string](replicas),
	}
	if verbose {
		var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		opts = append(opts, hashring.WithLogger[string](logger))
	}

	var nodes = make([]string, 0, seedCount)
	for i := 0; i < seedCount; i++ {
		nodes = append(nodes, newNodeID())
	}

	var ring = hashring.NewRing(nodes, opts...)
	fmt.Println(ring)

	// Initialize keyboard
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Println("[a] add node  [r] remove newest node  [v] validate  [l] lookup sample keys  [q] quit")

	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		if key == keyboard.KeyCtrlC || char == 'q' {
			return nil
		}

		switch char {
		case 'a':
			var node = newNodeID()
			ring.AddNode(node)
			nodes = append(nodes, node)
			fmt.Printf("\nAdded node %s\n\n", node)
			fmt.Println(ring)

		case 'r':
			if len(nodes) == 0 {
				fmt.Println("\nRing is already empty")
				continue
			}
			var node = nodes[len(nodes)-1]
			nodes = nodes[:len(nodes)-1]
			ring.RemoveNode(node)
			fmt.Printf("\nRemoved node %s\n\n", node)
			fmt.Println(ring)

		case 'v':
			printValidation(ring)

		case 'l':
			printLookups(ring)
		}
	}
}

func printValidation(ring *hashring.Ring[string]) {
	var validation = ring.ValidateDistribution()

	fmt.Printf("\nValid: %v | Adjacent pairs: %d\n", validation.IsValid, validation.AdjacentPairs)
	for node, count := range validation.ReplicaCounts {
		fmt.Printf("  %s: %d position(s)\n", node, count)
	}
	for _, issue := range validation.Issues {
		fmt.Printf("  issue: %s\n", issue)
	}
}

func printLookups(ring *hashring.Ring[string]) {
	fmt.Println()
	for i := 0; i < 8; i++ {
		var key = fmt.Sprintf("sample-key-%d", i)
		var node, ok = ring.GetNode(key)
		if !ok {
			fmt.Printf("  %s -> (empty ring)\n", key)
			continue
		}
		fmt.Printf("  %s -> %s\n", key, node)
	}
}

// newNodeID generates a short human-readable node identifier.
func newNodeID() string {
	return fmt.Sprintf("node-%s", uuid.New().String()[0:8])
}
