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

package transport

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listen opens a net.Listener for addr. UNIX-domain listeners are unlinked
// first so a stale socket file left by a crashed previous instance does not
// block the bind.
func Listen(addr Address) (net.Listener, error) {
	if addr.Scheme == NetworkUnix {
		_ = os.Remove(addr.Path)
	}
	return net.Listen(addr.NetworkName(), addr.Endpoint())
}

// UnixSocketPerm is the post-bind ownership/mode a UNIX-domain listener
// socket should carry, per spec section 6's --sockowner/--sockgroup/
// --sockperms options. A negative Uid/Gid (-1) leaves that attribute
// unchanged (zero means root); a zero Mode leaves the mode unchanged.
type UnixSocketPerm struct {
	Uid  int
	Gid  int
	Mode os.FileMode
}

// ApplyUnixSocketPerm chowns and chmods path, the filesystem entry backing a
// freshly-bound UNIX listener. Chown is skipped entirely if both Uid and Gid
// are -1; unix.Chown itself leaves either attribute alone when passed -1, so
// an owner-only or group-only change is expressed by setting just one.
func ApplyUnixSocketPerm(path string, p UnixSocketPerm) error {
	if p.Uid >= 0 || p.Gid >= 0 {
		uid, gid := p.Uid, p.Gid
		if uid < 0 {
			uid = -1
		}
		if gid < 0 {
			gid = -1
		}
		if err := unix.Chown(path, uid, gid); err != nil {
			return err
		}
	}
	if p.Mode != 0 {
		if err := unix.Chmod(path, uint32(p.Mode.Perm())); err != nil {
			return err
		}
	}
	return nil
}
