package main

import (
	"fmt"

	"github.com/harunnryd/hisho/internal/vault"

	"github.com/spf13/cobra"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the vault directory",
}

var vaultInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the vault's stage directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := vault.Open(cfg.Vault.Path); err != nil {
			return fmt.Errorf("init vault: %w", err)
		}

		fmt.Printf("Vault initialized at %s\n", cfg.Vault.Path)
		for _, stage := range vault.AllStages {
			fmt.Printf("  %s/\n", stage)
		}
		return nil
	},
}

func init() {
	vaultCmd.AddCommand(vaultInitCmd)
	rootCmd.AddCommand(vaultCmd)
}
