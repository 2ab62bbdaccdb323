// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/internal/netlist"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check design.yaml",
		Short: "Check a design for width mismatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := g.logger(cmd)
			if err != nil {
				return err
			}
			d, err := netlist.LoadFile(args[0])
			if err != nil {
				return err
			}
			errs := evsim.WidthErrors(d.Top)
			for _, we := range errs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: widths %s\n", we.Circuit, we.Loc, joinInts(we.Widths))
			}
			if len(errs) > 0 {
				return errors.Errorf("%d incompatible nets", len(errs))
			}
			log.Info("design ok", "circuits", len(d.Circuits), "top", d.Top.Name())
			return nil
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the component kinds of design files",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(netlist.Kinds(), "\n"))
		},
	}
}

func joinInts(ns []int) string {
	s := make([]string, len(ns))
	for i, n := range ns {
		s[i] = fmt.Sprint(n)
	}
	return strings.Join(s, ", ")
}
