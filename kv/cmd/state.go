// Package cmd inspects the local state store: the saved session and the per-view
// preferences.
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/homy/homyadmin/config"
	"github.com/homy/homyadmin/kv"
	"github.com/spf13/cobra"
)

func Command(cfg *config.Config) *cobra.Command {
	var prefix string

	withStore := func(fn func(cmd *cobra.Command, store kv.KV, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := kv.NewPebble(filepath.Join(cfg.StateDir, "state"))
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(cmd, store, args)
		}
	}

	listCmd := &cobra.Command{
		Use:   "ls",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store kv.KV, args []string) error {
			r := store.Read()
			defer r.Close()

			start := []byte(prefix)
			var end []byte
			if prefix != "" {
				end = kv.PrefixEnd(start)
			}
			for kv, err := range r.Iter(cmd.Context(), start, end) {
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), escapeNonPrintable(kv.K))
			}
			return nil
		}),
	}
	listCmd.Flags().StringVar(&prefix, "prefix", "", "only keys starting with prefix, e.g. view/")

	getCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store kv.KV, args []string) error {
			r := store.Read()
			defer r.Close()

			v, err := r.Get(cmd.Context(), []byte(args[0]))
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("%s: not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(v))
			return nil
		}),
	}

	delCmd := &cobra.Command{
		Use:     "del [key]",
		Aliases: []string{"rm"},
		Short:   "Delete a key, e.g. view/orders to forget saved preferences",
		Args:    cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store kv.KV, args []string) error {
			w := store.Write()
			defer w.Close()
			if err := w.Del([]byte(args[0])); err != nil {
				return err
			}
			return w.Commit(cmd.Context())
		}),
	}

	c := &cobra.Command{
		Use:   "state",
		Short: "Inspect the local state store",
	}
	c.AddCommand(listCmd, getCmd, delCmd)
	return c
}

func escapeNonPrintable(b []byte) string {
	var result strings.Builder
	for _, c := range b {
		if c >= 32 && c <= 126 {
			result.WriteByte(c)
		} else {
			result.WriteString(fmt.Sprintf("\\x%02x", c))
		}
	}
	return result.String()
}
