package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/searchforge/suggestions/sources"
)

func newSeedCmd(flags *storeFlags) *cobra.Command {
	var itemsPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load items from a YAML file into the item store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if itemsPath == "" {
				return errors.New("--items is required")
			}
			items, err := sources.LoadItemsFile(itemsPath)
			if err != nil {
				return err
			}

			logger := flags.logger()
			store, err := flags.openStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Upsert(cmd.Context(), items...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&itemsPath, "items", "", "YAML file with an items list")
	return cmd
}
