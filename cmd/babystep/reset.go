// reset: return the baby-step offset to its default
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/display"
)

func newResetCmd(flags *globalFlags) *cobra.Command {
	var save, yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Move the Z offset back to the default and mirror the change",
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
			before := c.Pending()
			if err := c.ResetToDefault(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "babystep %s -> %s mm, nozzle offset %s mm\n",
				display.FormatOffset(before), display.FormatOffset(c.Pending()), display.FormatOffset(c.Reference()))

			if !save {
				return nil
			}
			var confirmer babystep.Confirmer = display.PromptConfirmer{}
			if yes {
				confirmer = display.FixedConfirmer{Answer: true}
			}
			saved, err := c.Save(confirmer)
			if err != nil {
				return err
			}
			if saved {
				fmt.Fprintln(cmd.OutOrStdout(), "settings saved")
			} else if !a.store.PersistenceEnabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "persistence is disabled, nothing saved")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "commit the parameter store afterwards")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before saving")
	return cmd
}
