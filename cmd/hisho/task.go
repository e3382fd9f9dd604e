package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/hisho/internal/vault"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work with task records",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Drop a new task into Needs_Action",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		kind, _ := cmd.Flags().GetString("type")
		body, _ := cmd.Flags().GetString("body")
		to, _ := cmd.Flags().GetString("to")

		if subject == "" {
			return fmt.Errorf("--subject is required")
		}

		v, err := vault.Open(cfg.Vault.Path)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		now := time.Now()
		id := fmt.Sprintf("task_%s", strings.ToLower(ulid.Make().String()))

		fields := vault.NewFields()
		fields.Set("type", kind)
		fields.Set("status", "needs_action")
		fields.Set("id", id)
		fields.Set("subject", subject)
		if to != "" {
			fields.Set("to", to)
		}
		fields.Set("created", now.Format(time.RFC3339))

		rec := &vault.Record{ID: id, Fields: fields, Body: body}
		if err := v.Create(vault.StageNeedsAction, rec); err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		fmt.Printf("Created %s in %s/\n", id, vault.StageNeedsAction)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().String("subject", "", "task subject")
	taskAddCmd.Flags().String("type", "generic", "task type (email, chat_message, linkedin_post, file_drop, generic)")
	taskAddCmd.Flags().String("body", "", "task body text")
	taskAddCmd.Flags().String("to", "", "recipient, for email tasks")

	taskCmd.AddCommand(taskAddCmd)
	rootCmd.AddCommand(taskCmd)
}
