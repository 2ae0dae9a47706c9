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

// Server holds the cache server's settings, bound from --listen/--sessions/
// etc. per spec section 6.
type Server struct {
	Listen        string
	Sessions      int
	Progress      int
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

// BindServerFlags registers the cache server's pflags on cmd and binds each
// to v under the same key, so TLSCACHED_<KEY> environment variables take
// effect without additional wiring.
func BindServerFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()

	f.String("listen", "IP:9500", "listener address (IP:<port>, IP:<host>:<port>, IPv4:<host>:<port>, UNIX:<path>)")
	f.Int("sessions", 4096, "cache capacity, in [64, 60000]")
	f.Int("progress", 0, "log a progress line every N dispatches (0 disables)")
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

// LoadServer reads the bound flags back out of v into a Server, validating
// the ranges spec section 6 requires.
func LoadServer(v *viper.Viper) (Server, error) {
	s := Server{
		Listen:        v.GetString("listen"),
		Sessions:      v.GetInt("sessions"),
		Progress:      v.GetInt("progress"),
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

	if s.Sessions < 64 || s.Sessions > 60_000 {
		return Server{}, fmt.Errorf("config: --sessions %d out of range [64, 60000]", s.Sessions)
	}
	return s, nil
}
