/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command tlscached is the cache server: it listens for downstream
// connections (ordinarily from a tlscachemux multiplexer, though the wire
// protocol does not distinguish the caller) and dispatches ADD/GET/REMOVE/
// HAVE against an in-memory session store.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nabbar/tlscached/cache"
	"github.com/nabbar/tlscached/cacheserver"
	"github.com/nabbar/tlscached/config"
	"github.com/nabbar/tlscached/internal/procutil"
	"github.com/nabbar/tlscached/logging"
	"github.com/nabbar/tlscached/metrics"
	"github.com/nabbar/tlscached/transport"
)

func main() {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "tlscached",
		Short: "distributed TLS session cache server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(v)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	config.BindServerFlags(cmd, v)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Server) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("instance", uuid.New().String())

	if cfg.Daemon {
		log.Warn("--daemon is accepted for compatibility but this binary does not fork; run it under a process supervisor")
	}

	store, err := cache.New(cfg.Sessions)
	if err != nil {
		return fmt.Errorf("tlscached: cache store: %w", err)
	}

	reg := prometheus.NewRegistry()
	mx := metrics.NewServer(reg)

	srv := cacheserver.New(store, log, mx)

	addr, err := transport.ParseAddress(cfg.Listen)
	if err != nil {
		return fmt.Errorf("tlscached: %w", err)
	}
	ln, err := transport.Listen(addr)
	if err != nil {
		return fmt.Errorf("tlscached: listen: %w", err)
	}
	defer ln.Close()

	if addr.Scheme == transport.NetworkUnix && (cfg.SockOwner != "" || cfg.SockGroup != "" || cfg.SockPerms != "") {
		perm, err := procutil.ResolveSockPerm(cfg.SockOwner, cfg.SockGroup, cfg.SockPerms)
		if err != nil {
			return fmt.Errorf("tlscached: %w", err)
		}
		if err := transport.ApplyUnixSocketPerm(addr.Path, perm); err != nil {
			return fmt.Errorf("tlscached: chown/chmod %s: %w", addr.Path, err)
		}
	}

	cleanupPID, err := procutil.WritePIDFile(cfg.PidFile)
	if err != nil {
		return fmt.Errorf("tlscached: %w", err)
	}
	defer cleanupPID()

	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				log.WithError(err).Error("tlscached: metrics listener stopped")
			}
		}()
	}

	log.WithField("listen", addr.String()).WithField("sessions", cfg.Sessions).Info("tlscached starting")

	killCh := procutil.ShutdownSignals(cfg.Killable)
	stopCh := make(chan os.Signal, 2)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stopCh)

	stop := make(chan struct{})
	go func() {
		select {
		case sig := <-killCh:
			log.WithField("signal", sig.String()).Info("clean shutdown requested")
		case sig := <-stopCh:
			log.WithField("signal", sig.String()).Info("shutting down")
		}
		close(stop)
	}()

	if cfg.Progress > 0 {
		go reportProgress(srv, cfg.Progress, stop, log)
	}

	sel := transport.NewSelector()
	return srv.Run(ln, sel, 500*time.Millisecond, stop)
}

// reportProgress logs cumulative op counts every cfg.Progress dispatches,
// polling Server.Ops since Run no longer exposes a per-tick hook to the
// caller.
func reportProgress(srv *cacheserver.Server, every int, stop <-chan struct{}, log logging.Logger) {
	next := uint64(every)
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			for srv.Ops() >= next {
				log.WithField("ops", next).Info("progress")
				next += uint64(every)
			}
		case <-stop:
			return
		}
	}
}
