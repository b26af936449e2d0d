package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var decayTauDays float64

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Apply time decay to all stored identities and forms",
	RunE:  runDecay,
}

func init() {
	decayCmd.Flags().Float64Var(&decayTauDays, "tau-days", 0, "base decay time constant in days (default: config value)")
}

func runDecay(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	tau := decayTauDays
	if tau <= 0 {
		tau = cfg.Lattice.BaseTauDays
	}

	updated, err := db.ApplyTimeDecay(tau, cfg.Lattice.TauEntropyCoeff)
	if err != nil {
		return err
	}

	fmt.Printf("decay applied (tau %.1f days): %d rows updated\n", tau, updated)
	return nil
}
