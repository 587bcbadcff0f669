package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all variants",
	Long:  `Shows every registered merge5 variant.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	games := registry.List()

	if len(games) == 0 {
		fmt.Println("No variants available.")
		return
	}

	fmt.Println("Available variants:")
	fmt.Println()

	maxIDLen := 2 // "ID" header
	for _, g := range games {
		maxIDLen = max(maxIDLen, len(g.ID))
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")
	for _, g := range games {
		fmt.Printf("  %-*s  %s\n", maxIDLen, g.ID, g.Title)
		if v, ok := merge5.VariantByID(g.ID); ok && v.Description != "" {
			fmt.Printf("  %-*s  %s\n", maxIDLen, "", v.Description)
		}
	}

	fmt.Println()
	fmt.Println("Run 'merge5 play <id>' to play a variant.")
}
