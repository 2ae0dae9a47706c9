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

package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Mux holds the multiplexer's settings, bound from --listen/--server/etc.
// per spec section 6.
type Mux struct {
	Listen        string
	Server        string
	RetryMS       int
	IdleMS        int
	Daemon        bool
	User          string
	SockOwner     string
	SockGroup     string
	SockPerms     string
	PidFile       string
	Killable      bool
	LogLevel      string
	LogFormat     string
	MetricsListen string
}

// BindMuxFlags registers the multiplexer's pflags on cmd and binds each to v.
func BindMuxFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()

	f.String("listen", "UNIX:/var/run/tlscachemux.sock", "local listener address for co-located TLS processes")
	f.String("server", "IP:cache01:9500", "upstream cache-server address")
	f.Int("retry", 1000, "upstream reconnect interval in ms, in [1, 3600000]")
	f.Int("idle", 0, "downstream idle timeout in ms, in [0, 3600000] (0 disables)")
	f.Bool("daemon", false, "accepted for compatibility; the process does not fork")
	f.String("user", "", "accepted for compatibility; privileges are not dropped")
	f.String("sockowner", "", "chown the UNIX listener socket to this user")
	f.String("sockgroup", "", "chown the UNIX listener socket to this group")
	f.String("sockperms", "0660", "chmod the UNIX listener socket to this octal mode")
	f.String("pidfile", "", "write the process id to this path")
	f.Bool("killable", false, "handle SIGUSR1/SIGUSR2 as a clean-shutdown request")
	f.String("log-level", "info", "debug, info, warn, or error")
	f.String("log-format", "text", "text or json")
	f.String("metrics-listen", "", "address to serve /metrics on (empty disables)")

	bindAll(v, f)
}

// LoadMux reads the bound flags back out of v into a Mux, validating the
// ranges spec section 6 requires.
func LoadMux(v *viper.Viper) (Mux, error) {
	m := Mux{
		Listen:        v.GetString("listen"),
		Server:        v.GetString("server"),
		RetryMS:       v.GetInt("retry"),
		IdleMS:        v.GetInt("idle"),
		Daemon:        v.GetBool("daemon"),
		User:          v.GetString("user"),
		SockOwner:     v.GetString("sockowner"),
		SockGroup:     v.GetString("sockgroup"),
		SockPerms:     v.GetString("sockperms"),
		PidFile:       v.GetString("pidfile"),
		Killable:      v.GetBool("killable"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
		MetricsListen: v.GetString("metrics-listen"),
	}

	if m.RetryMS < 1 || m.RetryMS > 3_600_000 {
		return Mux{}, fmt.Errorf("config: --retry %d out of range [1, 3600000]", m.RetryMS)
	}
	if m.IdleMS < 0 || m.IdleMS > 3_600_000 {
		return Mux{}, fmt.Errorf("config: --idle %d out of range [0, 3600000]", m.IdleMS)
	}
	return m, nil
}
