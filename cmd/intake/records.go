package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/pkg/adapters/airtable"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List saved profile records",
	Long:  `Lists the records the configured Airtable table holds. Requires AIRTABLE_API_KEY and AIRTABLE_BASE_ID.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if !cfg.AirtableConfigured() {
			fmt.Println("Airtable is not configured; nothing to list.")
			os.Exit(1)
		}

		store, err := airtable.New(cfg.Airtable.APIKey, cfg.Airtable.BaseID, cfg.Airtable.Table)
		if err != nil {
			fmt.Printf("Error opening record store: %v\n", err)
			os.Exit(1)
		}

		records, err := store.ListRecords(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing records: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Println("No records found.")
			return
		}

		for _, rec := range records {
			name, _ := rec.Fields["Name"].(string)
			email, _ := rec.Fields["Email"].(string)
			fmt.Printf("- %s  %s  %s\n", rec.ID, name, email)
		}
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}
