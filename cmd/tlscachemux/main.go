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

// Command tlscachemux is the multiplexer: it accepts connections from
// TLS-terminating processes on a local listener (ordinarily a UNIX socket)
// and multiplexes their requests over one shared connection to a tlscached
// cache server.
package main

import (
	"fmt"
	"net"
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

	"github.com/nabbar/tlscached/config"
	"github.com/nabbar/tlscached/internal/procutil"
	"github.com/nabbar/tlscached/logging"
	"github.com/nabbar/tlscached/metrics"
	"github.com/nabbar/tlscached/mux"
	"github.com/nabbar/tlscached/plug"
	"github.com/nabbar/tlscached/transport"
)

func main() {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "tlscachemux",
		Short: "TLS session cache multiplexer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadMux(v)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	config.BindMuxFlags(cmd, v)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Mux) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("instance", uuid.New().String())

	if cfg.Daemon {
		log.Warn("--daemon is accepted for compatibility but this binary does not fork; run it under a process supervisor")
	}

	sel := transport.NewSelector()

	upAddr, err := transport.ParseAddress(cfg.Server)
	if err != nil {
		return fmt.Errorf("tlscachemux: --server: %w", err)
	}
	dial := func() (plug.ByteStream, error) {
		conn, err := net.Dial(upAddr.NetworkName(), upAddr.Endpoint())
		if err != nil {
			return nil, err
		}
		return sel.Register(conn), nil
	}

	reg := prometheus.NewRegistry()
	mx := metrics.NewMux(reg)

	retry := time.Duration(cfg.RetryMS) * time.Millisecond
	idle := time.Duration(cfg.IdleMS) * time.Millisecond
	agent := mux.New(dial, retry, idle, log, mx)

	addr, err := transport.ParseAddress(cfg.Listen)
	if err != nil {
		return fmt.Errorf("tlscachemux: %w", err)
	}
	ln, err := transport.Listen(addr)
	if err != nil {
		return fmt.Errorf("tlscachemux: listen: %w", err)
	}
	defer ln.Close()

	if addr.Scheme == transport.NetworkUnix && (cfg.SockOwner != "" || cfg.SockGroup != "" || cfg.SockPerms != "") {
		perm, err := procutil.ResolveSockPerm(cfg.SockOwner, cfg.SockGroup, cfg.SockPerms)
		if err != nil {
			return fmt.Errorf("tlscachemux: %w", err)
		}
		if err := transport.ApplyUnixSocketPerm(addr.Path, perm); err != nil {
			return fmt.Errorf("tlscachemux: chown/chmod %s: %w", addr.Path, err)
		}
	}

	cleanupPID, err := procutil.WritePIDFile(cfg.PidFile)
	if err != nil {
		return fmt.Errorf("tlscachemux: %w", err)
	}
	defer cleanupPID()

	if cfg.MetricsListen != "" {
		hmux := http.NewServeMux()
		hmux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsListen, hmux); err != nil {
				log.WithError(err).Error("tlscachemux: metrics listener stopped")
			}
		}()
	}

	log.WithField("listen", addr.String()).WithField("server", upAddr.String()).Info("tlscachemux starting")

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

	tickInterval := retry / 3
	if tickInterval > 20*time.Millisecond {
		tickInterval = 20 * time.Millisecond
	}
	if tickInterval <= 0 {
		tickInterval = time.Millisecond
	}

	return agent.Run(ln, sel, tickInterval, stop)
}
