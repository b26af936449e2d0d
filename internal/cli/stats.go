package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print lattice storage counts",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	geoids, err := db.CountIdentities("geoid")
	if err != nil {
		return err
	}
	scars, err := db.CountIdentities("scar")
	if err != nil {
		return err
	}
	forms, err := db.CountForms()
	if err != nil {
		return err
	}

	fmt.Printf("db:     %s\n", db.Path)
	fmt.Printf("geoids: %d\n", geoids)
	fmt.Printf("scars:  %d\n", scars)
	fmt.Printf("forms:  %d\n", forms)
	return nil
}
