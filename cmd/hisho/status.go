package main

import (
	"fmt"

	"github.com/harunnryd/hisho/internal/vault"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-stage record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(cfg.Vault.Path)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		purple := lipgloss.Color("99")
		gray := lipgloss.Color("245")

		headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
		cellStyle := lipgloss.NewStyle().Foreground(gray).Padding(0, 1)

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(purple)).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers("STAGE", "RECORDS")

		for _, stage := range vault.AllStages {
			t.Row(stage.String(), fmt.Sprintf("%d", v.Count(stage)))
		}

		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
