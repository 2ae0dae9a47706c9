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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Network identifies the listener family named by a parsed Address.
type Network int

const (
	// NetworkIP is the "IP:" scheme: dual-stack TCP, host optional.
	NetworkIP Network = iota
	// NetworkIPv4 is the "IPv4:" scheme: TCP restricted to IPv4, host required.
	NetworkIPv4
	// NetworkUnix is the "UNIX:" scheme: a filesystem-path UNIX socket.
	NetworkUnix
)

// ErrInvalidAddress is returned by ParseAddress for any string that does not
// match one of the four supported schemes.
var ErrInvalidAddress = errors.New("transport: invalid listener address")

// Address is a parsed listener address, one of the four textual schemes
// named in spec section 6: "IP:<port>", "IP:<host>:<port>",
// "IPv4:<host>:<port>", and "UNIX:<path>".
type Address struct {
	Scheme Network
	Host   string
	Port   int
	Path   string
}

// ParseAddress parses raw into an Address.
func ParseAddress(raw string) (Address, error) {
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q: missing scheme", ErrInvalidAddress, raw)
	}

	switch strings.ToUpper(scheme) {
	case "UNIX":
		if rest == "" {
			return Address{}, fmt.Errorf("%w: %q: empty UNIX path", ErrInvalidAddress, raw)
		}
		return Address{Scheme: NetworkUnix, Path: rest}, nil

	case "IP":
		if idx := strings.LastIndex(rest, ":"); idx >= 0 {
			host, portStr := rest[:idx], rest[idx+1:]
			port, err := parsePort(portStr)
			if err != nil {
				return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, raw, err)
			}
			return Address{Scheme: NetworkIP, Host: host, Port: port}, nil
		}
		port, err := parsePort(rest)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, raw, err)
		}
		return Address{Scheme: NetworkIP, Port: port}, nil

	case "IPV4":
		idx := strings.LastIndex(rest, ":")
		if idx < 0 {
			return Address{}, fmt.Errorf("%w: %q: IPv4 requires host:port", ErrInvalidAddress, raw)
		}
		host, portStr := rest[:idx], rest[idx+1:]
		if host == "" {
			return Address{}, fmt.Errorf("%w: %q: IPv4 requires a host", ErrInvalidAddress, raw)
		}
		port, err := parsePort(portStr)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, raw, err)
		}
		return Address{Scheme: NetworkIPv4, Host: host, Port: port}, nil

	default:
		return Address{}, fmt.Errorf("%w: %q: unrecognized scheme %q", ErrInvalidAddress, raw, scheme)
	}
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// NetworkName returns the net-package network name this address dials or
// listens under ("tcp", "tcp4", or "unix").
func (a Address) NetworkName() string {
	switch a.Scheme {
	case NetworkIPv4:
		return "tcp4"
	case NetworkUnix:
		return "unix"
	default:
		return "tcp"
	}
}

// Endpoint returns the string net.Dial/net.Listen expects as their second
// argument for this address.
func (a Address) Endpoint() string {
	if a.Scheme == NetworkUnix {
		return a.Path
	}
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// String renders the address back to its canonical textual form.
func (a Address) String() string {
	switch a.Scheme {
	case NetworkUnix:
		return "UNIX:" + a.Path
	case NetworkIPv4:
		return "IPv4:" + a.Endpoint()
	default:
		if a.Host == "" {
			return "IP:" + strconv.Itoa(a.Port)
		}
		return "IP:" + a.Endpoint()
	}
}
