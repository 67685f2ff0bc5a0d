// show: print the current offsets
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"babystep-go/pkg/babystep"
)

func newShowCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the baby-step and nozzle offsets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			c, err := babystep.New(a.actuator, a.store, cfg.Limits, a.controllerOptions(nil)...)
			if err != nil {
				return err
			}
			status := c.Status()
			status["persistence"] = a.store.PersistenceEnabled()
			if asJSON {
				return writeStatusJSON(cmd.OutOrStdout(), status)
			}
			return writeStatusTable(cmd.OutOrStdout(), status)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeStatusJSON(w io.Writer, status map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

func writeStatusTable(w io.Writer, status map[string]any) error {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := pterm.TableData{{"field", "value"}}
	for _, k := range keys {
		v := status[k]
		if f, ok := v.(float64); ok {
			v = fmt.Sprintf("%.3f", f)
		}
		data = append(data, []string{k, fmt.Sprint(v)})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
