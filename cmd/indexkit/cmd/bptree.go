package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/indexkit/pkg/bptreemap"
)

var bptreeCmd = &cobra.Command{
	Use:   "bptree [N]",
	Short: "Load i -> i*i for i in [1,N] into a BPlusTreeMap and report its stats",
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

		t := bptreemap.New[int, int](cfg.BPlusTree.Order)
		for i := 1; i <= n; i++ {
			t.Put(i, i*i)
		}

		t.ResetAccessCount()
		for i := 1; i <= n; i++ {
			if _, found := t.Get(i); !found {
				return fmt.Errorf("lookup %d: expected to find key just inserted", i)
			}
		}

		fmt.Printf("order=%d size=%d lookups=%d accesses=%d\n", cfg.BPlusTree.Order, t.Size(), n, t.AccessCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bptreeCmd)
}
