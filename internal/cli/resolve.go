package cli

import (
	"fmt"

	"github.com/kimeraswm/kimera/internal/identity"
	"github.com/kimeraswm/kimera/internal/lattice"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <text-a> <text-b>",
	Short: "Resolve two text contents through the lattice",
	Long:  "Creates (or reuses) geoid identities for both texts, resolves them through their shared echo form, and prints the accumulated intensity.",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := identity.NewGeoid(args[0])
	if err != nil {
		return err
	}
	b, err := identity.NewGeoid(args[1])
	if err != nil {
		return err
	}

	if err := db.PutIdentity(a); err != nil {
		return err
	}
	if err := db.PutIdentity(b); err != nil {
		return err
	}

	lat := lattice.New(db, cfg.Lattice)
	intensity, err := lat.Resolve(a, b)
	if err != nil {
		return err
	}

	fmt.Printf("anchor:    %s\n", lattice.AnchorFor(a.ID, b.ID))
	fmt.Printf("intensity: %.4f\n", intensity)
	return nil
}
