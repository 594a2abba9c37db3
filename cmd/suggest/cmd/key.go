package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/searchforge/suggestions/internal/cache"
)

func newKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key <domain> [name=value...]",
		Short: "Print the cache key a domain and parameters resolve to",
		Long: `Values "true" and "false" become booleans and integers become
numbers; everything else is a string. A bare name is shorthand for name=true.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			key := cache.BuildKey(args[0], params)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(key, " "))
			fmt.Fprintln(out, key.ID())
			return nil
		},
	}
}

func parseParams(args []string) (cache.Params, error) {
	params := make(cache.Params, len(args))
	for _, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid parameter %q", arg)
		}
		if !found {
			params[name] = true
			continue
		}
		switch value {
		case "true":
			params[name] = true
			continue
		case "false":
			params[name] = false
			continue
		}
		if n, err := strconv.Atoi(value); err == nil {
			params[name] = n
			continue
		}
		params[name] = value
	}
	return params, nil
}
