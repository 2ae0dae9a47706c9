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

// Package procutil holds the small OS-boundary helpers shared by the
// cmd/tlscached and cmd/tlscachemux entrypoints: pidfile lifecycle, resolving
// --sockowner/--sockgroup/--sockperms into a transport.UnixSocketPerm, and
// the --killable signal channel.
package procutil

import (
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"

	"github.com/nabbar/tlscached/transport"
)

// WritePIDFile writes the current process id to path. It returns a cleanup
// func removing the file; the caller defers it. A blank path is a no-op.
func WritePIDFile(path string) (cleanup func(), err error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("procutil: write pidfile: %w", err)
	}
	return func() { _ = os.Remove(path) }, nil
}

// ResolveSockPerm turns the textual --sockowner/--sockgroup/--sockperms
// options into a transport.UnixSocketPerm, accepting either a numeric id or
// a name resolved via the OS user/group database. Blank owner/group leave
// that attribute unchanged (-1); a blank mode leaves the mode unchanged (0).
func ResolveSockPerm(owner, group, mode string) (transport.UnixSocketPerm, error) {
	perm := transport.UnixSocketPerm{Uid: -1, Gid: -1}

	if owner != "" {
		uid, err := resolveUID(owner)
		if err != nil {
			return perm, err
		}
		perm.Uid = uid
	}
	if group != "" {
		gid, err := resolveGID(group)
		if err != nil {
			return perm, err
		}
		perm.Gid = gid
	}
	if mode != "" {
		m, err := strconv.ParseUint(mode, 8, 32)
		if err != nil {
			return perm, fmt.Errorf("procutil: invalid --sockperms %q: %w", mode, err)
		}
		perm.Mode = os.FileMode(m)
	}
	return perm, nil
}

func resolveUID(owner string) (int, error) {
	if uid, err := strconv.Atoi(owner); err == nil {
		return uid, nil
	}
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, fmt.Errorf("procutil: resolve user %q: %w", owner, err)
	}
	return strconv.Atoi(u.Uid)
}

func resolveGID(group string) (int, error) {
	if gid, err := strconv.Atoi(group); err == nil {
		return gid, nil
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, fmt.Errorf("procutil: resolve group %q: %w", group, err)
	}
	return strconv.Atoi(g.Gid)
}

// ShutdownSignals returns a channel fed SIGUSR1/SIGUSR2 when killable is
// set (the spec's clean-shutdown trigger), or nil otherwise so a select on
// it blocks forever without a stop/notify pair to tear down.
func ShutdownSignals(killable bool) chan os.Signal {
	if !killable {
		return nil
	}
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)
	return ch
}
