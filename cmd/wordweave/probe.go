package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/LJTian/WordWeave/internal/config"
	"github.com/LJTian/WordWeave/internal/monitor"
	"github.com/LJTian/WordWeave/internal/provider"
	"github.com/spf13/cobra"
)

type probeOptions struct {
	strict  bool
	watch   bool
	timeout time.Duration
}

// printSurface 把连接提示打印到终端
type printSurface struct{ w io.Writer }

func (p printSurface) Show(msg string, _ monitor.BannerKind) { fmt.Fprintln(p.w, msg) }
func (p printSurface) Hide()                                 {}

func newProbeCmd(root *rootOptions) *cobra.Command {
	opts := &probeOptions{}
	cmd := &cobra.Command{
		Use:   "probe [provider]",
		Short: "Check whether a translator service is reachable",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := provider.NameFree
			if len(args) == 1 {
				name = args[0]
			}
			return runProbe(cmd, name, opts, root)
		},
	}
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Treat 5xx responses as unreachable")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep retrying with backoff until reachable")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Give up watching after this long")
	return cmd
}

func runProbe(cmd *cobra.Command, name string, opts *probeOptions, root *rootOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	cfg := config.Load()
	keys := apiKeys(cfg, root.allowEnv)
	t, err := provider.New(ctx, name, provider.Options{Source: "en", Target: "fr", APIKey: keys[name], Model: cfg.GeminiModel})
	if err != nil {
		return err
	}
	prober := monitor.NewHTTPProber(opts.strict || cfg.ProbeStrict)
	out := cmd.OutOrStdout()

	if !opts.watch {
		if err := prober.Probe(ctx, t.TestURL()); err != nil {
			fmt.Fprintf(out, "%s: unreachable (%v)\n", t.Name(), err)
			return err
		}
		fmt.Fprintf(out, "%s: reachable\n", t.Name())
		return nil
	}

	recovered := make(chan struct{}, 1)
	mon := monitor.New(prober,
		monitor.WithSurface(printSurface{w: out}),
		monitor.WithServiceName(t.Name()),
		monitor.OnRecover(func() {
			select {
			case recovered <- struct{}{}:
			default:
			}
		}),
	)
	defer mon.Stop()

	mon.Start(ctx, t.TestURL())
	if mon.State() == monitor.Reachable {
		fmt.Fprintf(out, "%s: reachable\n", t.Name())
		return nil
	}
	select {
	case <-recovered:
		fmt.Fprintf(out, "%s: reachable after %d attempts\n", t.Name(), mon.Snapshot().Attempt)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: still unreachable: %w", t.Name(), ctx.Err())
	}
}
