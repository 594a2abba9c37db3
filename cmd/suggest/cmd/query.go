package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/searchforge/suggestions/internal/controller"
)

func newQueryCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>",
		Short: "Print the suggestions a query produces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			index, err := flags.index()
			if err != nil {
				return err
			}
			store, err := flags.openStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctrl, err := controller.New(controller.Config{Index: index, Store: store, Logger: logger})
			if err != nil {
				return err
			}

			resp := ctrl.SearchSuggestions(cmd.Context(), strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}
