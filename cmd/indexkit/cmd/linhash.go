package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/indexkit/pkg/linhash"
)

var linhashCmd = &cobra.Command{
	Use:   "linhash [N]",
	Short: "Load i -> i*i for i in [1,N] into a LinHashMap and report its stats",
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

		m := linhash.New[int, int](cfg.LinHash.InitSize, cfg.LinHash.Slots, intHash)
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
			cfg.LinHash.InitSize, cfg.LinHash.Slots, m.Size(), n, m.AccessCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linhashCmd)
}
