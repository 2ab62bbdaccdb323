// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command evsim loads a YAML circuit design and simulates it.
//
//	evsim check design.yaml
//	evsim run design.yaml --ticks 16 --set a=1 --set b=0x3
//
package main

import (
	"log/slog"
	"os"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	config   string
	logLevel string
}

func (g *globalFlags) logger(cmd *cobra.Command) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, errors.Wrap(err, "log-level")
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl})), nil
}

func (g *globalFlags) simConfig() (evsim.Config, error) {
	if g.config == "" {
		return evsim.DefaultConfig(), nil
	}
	return evsim.LoadConfig(g.config)
}

func newRootCmd() *cobra.Command {
	g := new(globalFlags)
	root := &cobra.Command{
		Use:           "evsim",
		Short:         "Event driven digital logic simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "simulator configuration file (YAML)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.AddCommand(newRunCmd(g), newCheckCmd(g), newKindsCmd())
	return root
}
