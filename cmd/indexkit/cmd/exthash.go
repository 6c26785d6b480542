package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/indexkit/pkg/exthash"
)

var exthashCmd = &cobra.Command{
	Use:   "exthash [N]",
	Short: "Load i -> i*i for i in [1,N] into an ExtHashMap and report its stats",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseN(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		m := exthash.New[int, int](cfg.ExtHash.InitSize, cfg.ExtHash.Slots, intHash)
		for i := 1; i <= n; i++ {
			if err := m.Put(i, i*i); err != nil {
				return fmt.Errorf("put %d: %w", i, err)
			}
		}

		m.ResetAccessCount()
		for i := 1; i <= n; i++ {
			if _, found := m.Get(i); !found {
				return fmt.Errorf("lookup %d: expected to find key just inserted", i)
			}
		}

		fmt.Printf("initSize=%d slots=%d size=%d lookups=%d accesses=%d\n",
			cfg.ExtHash.InitSize, cfg.ExtHash.Slots, m.Size(), n, m.AccessCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exthashCmd)
}
