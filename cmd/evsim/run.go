// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/internal/netlist"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type runFlags struct {
	ticks    int
	sets     []string
	realtime bool
	metrics  string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := new(runFlags)
	cmd := &cobra.Command{
		Use:   "run design.yaml",
		Short: "Simulate a design and print value changes",
		Long: `Run loads a design, sets its input pins, then ticks its clocks.
Every value change is printed with its simulated time. With --realtime, the
clocks are driven at the tick frequency of the configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesign(cmd, g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.ticks, "ticks", "n", 0, "number of clock ticks to run")
	fl.StringArrayVarP(&f.sets, "set", "s", nil, "set input pin `name=value` (binary or 0x hex)")
	fl.BoolVar(&f.realtime, "realtime", false, "tick clocks in real time")
	fl.StringVar(&f.metrics, "metrics", "", "serve prometheus metrics on `addr`")
	return cmd
}

func runDesign(cmd *cobra.Command, g *globalFlags, f *runFlags, name string) error {
	log, err := g.logger(cmd)
	if err != nil {
		return err
	}
	cfg, err := g.simConfig()
	if err != nil {
		return err
	}
	d, err := netlist.LoadFile(name)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if f.metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: f.metrics, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "addr", f.metrics, "error", err)
			}
		}()
		defer srv.Close()
	}

	opts := append(cfg.Options(), evsim.WithLogger(log), evsim.WithAutoTick(false))
	s, err := evsim.NewSimulator(d.Top, opts...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	sub := s.Subscribe(-1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range sub.C() {
			printResult(out, r)
		}
	}()

	var final map[evsim.Location]evsim.Value
	err = simulate(ctx, s, d, f)
	if err == nil {
		final, err = s.Snapshot(ctx)
	}
	rate := s.TickRate()
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	<-done
	if final != nil {
		printState(out, d.Top, final)
	}
	if rate != "" {
		fmt.Fprintf(out, "tick rate: %s\n", rate)
	}
	if n := sub.Dropped(); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d results not printed\n", n)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func simulate(ctx context.Context, s *evsim.Simulator, d *netlist.Design, f *runFlags) error {
	for _, set := range f.sets {
		label, v, err := parseSet(d.Top, set)
		if err != nil {
			return err
		}
		if _, err = s.SetPin(ctx, label, v); err != nil {
			return err
		}
	}
	if _, err := s.Propagate(ctx); err != nil {
		return err
	}
	if f.ticks <= 0 {
		return nil
	}
	if !f.realtime {
		for i := 0; i < f.ticks; i++ {
			r, err := s.Tick(ctx)
			if err != nil {
				return err
			}
			if !r.Ticked {
				return errors.New("design has no clock")
			}
		}
		return nil
	}
	return tickRealtime(ctx, s, uint64(f.ticks))
}

// tickRealtime runs the clock driver until n ticks were run.
func tickRealtime(ctx context.Context, s *evsim.Simulator, n uint64) error {
	sub := s.Subscribe(1)
	defer s.Unsubscribe(sub)
	s.SetAutoTick(true)
	defer s.SetAutoTick(false)
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-sub.C():
			if !ok {
				return evsim.ErrClosed
			}
			if r.Ticks >= n {
				return nil
			}
		case <-poll.C:
			if !s.IsAutoTicking() {
				return errors.New("design has no clock")
			}
		}
	}
}

func parseSet(c *evsim.Circuit, set string) (string, evsim.Value, error) {
	i := strings.IndexByte(set, '=')
	if i < 0 {
		return "", evsim.Nil, errors.Errorf("invalid pin setting %q, want name=value", set)
	}
	label, val := strings.TrimSpace(set[:i]), strings.TrimSpace(set[i+1:])
	for _, p := range c.Pins() {
		if p.Label != label {
			continue
		}
		v, err := evsim.ParseValue(p.Width, val)
		return label, v, errors.Wrap(err, label)
	}
	return "", evsim.Nil, errors.Errorf("no pin %s in circuit %s", label, c.Name())
}

func pointName(pt evsim.Point) string {
	if pt.State == 0 {
		return string(pt.Loc)
	}
	return fmt.Sprintf("[%d]%s", pt.State, pt.Loc)
}

func printResult(w io.Writer, r *evsim.StepResult) {
	for _, c := range r.Changes {
		fmt.Fprintf(w, "%8d  %s = %s\n", r.Time, pointName(c.Point), c.Value)
	}
	if r.Unstable {
		fmt.Fprintf(w, "%8d  %v\n", r.Time, r.Err)
		for _, pt := range r.Oscillating {
			fmt.Fprintf(w, "%8s  oscillating: %s\n", "", pointName(pt))
		}
	}
}

// printState prints the final values of the pins of c.
func printState(w io.Writer, c *evsim.Circuit, m map[evsim.Location]evsim.Value) {
	pins := c.Pins()
	sort.Slice(pins, func(i, j int) bool { return pins[i].Label < pins[j].Label })
	for _, p := range pins {
		fmt.Fprintf(w, "%s %s = %s\n", p.Dir, p.Label, m[p.Loc])
	}
}
