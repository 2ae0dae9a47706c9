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

package mux

import (
	"net"
	"time"

	"github.com/nabbar/tlscached/logging"
	"github.com/nabbar/tlscached/metrics"
	"github.com/nabbar/tlscached/plug"
	"github.com/nabbar/tlscached/transport"
	"github.com/nabbar/tlscached/wire"
)

const (
	maxClients = 1024
	maxMplex   = 512
)

// Agent is the multiplexer: it owns the downstream client set, the single
// upstream connection, and the multiplex table tying in-flight downstream
// requests to their upstream counterpart. A single goroutine is expected to
// call Tick in a loop; nothing here is safe for concurrent use.
type Agent struct {
	clients       map[uint64]*downstream
	priority      []uint64
	nextClientUID uint64

	mplex    map[uint32]*mplexEntry
	nextMUID uint32

	up *upstream

	idleTimeout time.Duration

	log logging.Logger
	mx  *metrics.Mux
}

// New builds an Agent that dials dial to reach the cache server, retrying
// no more often than retry after a failed attempt, and reaping any client
// whose plug has been idle (no open request) for at least idleTimeout
// (zero disables idle reaping).
func New(dial Dialer, retry, idleTimeout time.Duration, log logging.Logger, mx *metrics.Mux) *Agent {
	return &Agent{
		clients:     make(map[uint64]*downstream),
		mplex:       make(map[uint32]*mplexEntry),
		up:          newUpstream(dial, retry),
		idleTimeout: idleTimeout,
		log:         log,
		mx:          mx,
	}
}

// AddClient registers a newly accepted downstream connection and returns
// the uid it has been assigned.
func (a *Agent) AddClient(stream plug.ByteStream, now time.Time) (uint64, error) {
	if len(a.clients) >= maxClients {
		return 0, ErrTooManyClients
	}
	a.nextClientUID++
	uid := a.nextClientUID

	a.clients[uid] = &downstream{
		uid:       uid,
		plug:      plug.New(stream, 0),
		lastTouch: now,
	}
	a.priority = append(a.priority, uid)
	return uid, nil
}

// RemoveClient tears a client down: its plug is closed, any multiplex
// entries it owns are marked so a late upstream response is discarded
// rather than misdelivered, and it is dropped from the priority vector.
func (a *Agent) RemoveClient(uid uint64) error {
	if _, ok := a.clients[uid]; !ok {
		return ErrUnknownClient
	}
	a.teardownClient(uid)
	return nil
}

func (a *Agent) teardownClient(uid uint64) {
	if c, ok := a.clients[uid]; ok {
		_ = c.plug.Close()
	}
	for _, e := range a.mplex {
		if e.clientUID == uid {
			e.state = mplexClientDead
		}
	}
	delete(a.clients, uid)
	for i, v := range a.priority {
		if v == uid {
			a.priority = append(a.priority[:i], a.priority[i+1:]...)
			break
		}
	}
}

// NumClients reports the number of connected downstream clients.
func (a *Agent) NumClients() int { return len(a.clients) }

// MultiplexSize reports the number of live entries in the multiplex table.
func (a *Agent) MultiplexSize() int { return len(a.mplex) }

// UpstreamActive reports whether the upstream connection is currently up.
func (a *Agent) UpstreamActive() bool { return a.up.active() }

// Tick runs one cooperative scheduling pass: it services downstream I/O,
// maintains the upstream connection, forwards as many pending requests as
// the multiplex table and upstream plug allow, demultiplexes any upstream
// responses, and reaps dead or idle clients.
func (a *Agent) Tick(now time.Time) {
	var dead []uint64

	for uid, c := range a.clients {
		if err := c.plug.IO(); err != nil {
			dead = append(dead, uid)
			continue
		}
		if !c.requestOpen {
			if rUID, op, payload, ok := c.plug.Read(false); ok {
				c.requestUID = rUID
				c.requestOp = op
				c.requestBody = append(c.requestBody[:0], payload...)
				c.requestOpen = true
				c.lastTouch = now
				_ = c.plug.Consume()
			} else if a.idleTimeout > 0 && now.Sub(c.lastTouch) >= a.idleTimeout {
				dead = append(dead, uid)
			}
		}
	}
	for _, uid := range dead {
		a.teardownClient(uid)
	}

	if a.up.shouldRetry(now) {
		if err := a.up.connect(); err != nil {
			a.up.fail(now)
			if a.log != nil {
				a.log.WithError(err).Debug("mux: upstream reconnect failed")
			}
		} else if a.mx != nil {
			a.mx.Reconnects.Inc()
		}
	}
	if a.up.active() {
		if err := a.up.plug.IO(); err != nil {
			a.disconnectUpstream(now)
		}
	}

	a.schedulingPass(now)

	if a.up.active() {
		// flush whatever schedulingPass just forwarded before checking for
		// a response: over a real socket this is a syscall, over the
		// in-process path it collapses the round trip into one tick.
		if err := a.up.plug.IO(); err != nil {
			a.disconnectUpstream(now)
		}
	}

	if a.up.active() {
		for {
			muid, op, payload, ok := a.up.plug.Read(false)
			if !ok {
				break
			}
			a.demux(muid, op, payload)
			if err := a.up.plug.Consume(); err != nil {
				a.disconnectUpstream(now)
				break
			}
		}
	}

	for _, c := range a.clients {
		_ = c.plug.IO()
	}

	if a.mx != nil {
		a.mx.ClientCount.Set(float64(len(a.clients)))
		a.mx.MultiplexSize.Set(float64(len(a.mplex)))
	}
}

// Run accepts connections from ln and services them until stop is closed or
// ln.Accept fails, registering each with sel so a Tick fires the moment any
// client (or, if the Dialer passed to New also registers through sel, the
// upstream connection) has data waiting, rather than only on the floor
// ticker. floor is the idle liveness/retry-pacing fallback from spec
// section 5 (min(retry_msecs/3, 20ms)); the select below is this loop's one
// suspension point per tick.
func (a *Agent) Run(ln net.Listener, sel *transport.Selector, floor time.Duration, stop <-chan struct{}) error {
	acceptCh := make(chan net.Conn)
	acceptErr := make(chan error, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			acceptCh <- conn
		}
	}()

	ticker := time.NewTicker(floor)
	defer ticker.Stop()

	for {
		select {
		case conn := <-acceptCh:
			if _, err := a.AddClient(sel.Register(conn), time.Now()); err != nil {
				if a.log != nil {
					a.log.WithError(err).Warn("mux: rejected downstream connection")
				}
				_ = conn.Close()
			}

		case <-sel.Ready():
			a.Tick(time.Now())

		case <-ticker.C:
			a.Tick(time.Now())

		case err := <-acceptErr:
			return err

		case <-stop:
			return nil
		}
	}
}

// disconnectUpstream tears the current upstream incarnation down, answering
// every client with an in-flight request over it with a synthetic
// ERR_DISCONNECTED response and discarding every multiplex entry that
// belonged to it.
func (a *Agent) disconnectUpstream(now time.Time) {
	incarnation := a.up.uid
	a.up.fail(now)

	for muid, e := range a.mplex {
		if e.serverIncr != incarnation {
			continue
		}
		if e.state == mplexNormal {
			if c, ok := a.clients[e.clientUID]; ok && c.requestOpen {
				_ = c.plug.WriteMore([]byte{wire.StatusDisconnected.Byte()})
				_ = c.plug.Commit()
				c.requestOpen = false
				c.multiplexID = 0
				if a.mx != nil {
					a.mx.Disconnected.Inc()
				}
			}
		}
		e.state = mplexServerDead
		delete(a.mplex, muid)
	}
}

// demux delivers an upstream response to the client that issued the
// matching request, or discards it if the client has since disappeared.
func (a *Agent) demux(muid uint32, _ wire.Operation, payload []byte) {
	e, ok := a.mplex[muid]
	if !ok {
		return
	}
	delete(a.mplex, muid)
	if e.state != mplexNormal {
		return
	}
	c, ok := a.clients[e.clientUID]
	if !ok || !c.requestOpen {
		return
	}
	_ = c.plug.WriteMore(payload)
	_ = c.plug.Commit()
	c.requestOpen = false
	c.multiplexID = 0
}

// schedulingPass forwards as many pending downstream requests as the
// multiplex table has room for, walking the priority vector head to tail
// and rotating each serviced client to the tail so every client gets a
// turn in round-robin order.
func (a *Agent) schedulingPass(now time.Time) {
	for len(a.mplex) < maxMplex {
		idx, uid, ok := a.findForwardable()
		if !ok {
			return
		}
		c := a.clients[uid]

		if a.up.active() {
			muid := a.allocMUID()
			if err := a.up.plug.Write(false, muid, c.requestOp, c.requestBody); err != nil {
				if a.mx != nil {
					a.mx.ForwardFailure.Inc()
				}
				return
			}
			if err := a.up.plug.Commit(); err != nil {
				if a.mx != nil {
					a.mx.ForwardFailure.Inc()
				}
				return
			}

			entry := &mplexEntry{muid: muid, clientUID: uid, serverIncr: a.up.uid, state: mplexNormal}
			if err := c.plug.Write(false, c.requestUID, c.requestOp, nil); err != nil {
				entry.state = mplexClientDead
			} else {
				c.multiplexID = muid
				c.lastTouch = now
			}
			a.mplex[muid] = entry
		} else {
			_ = c.plug.Write(false, c.requestUID, c.requestOp, nil)
			_ = c.plug.WriteMore([]byte{wire.StatusDisconnected.Byte()})
			_ = c.plug.Commit()
			c.requestOpen = false
			if a.mx != nil {
				a.mx.Disconnected.Inc()
			}
		}
		a.rotate(idx)
	}
}

// findForwardable walks the priority vector head to tail looking for the
// first client with a pending, not-yet-forwarded request, pruning any uid
// left over from a client that has already been torn down.
func (a *Agent) findForwardable() (idx int, uid uint64, ok bool) {
	i := 0
	for i < len(a.priority) {
		uid = a.priority[i]
		c, exists := a.clients[uid]
		if !exists {
			a.priority = append(a.priority[:i], a.priority[i+1:]...)
			continue
		}
		if c.requestOpen && c.multiplexID == 0 {
			return i, uid, true
		}
		i++
	}
	return 0, 0, false
}

// rotate moves the client at idx to the tail of the priority vector.
func (a *Agent) rotate(idx int) {
	uid := a.priority[idx]
	a.priority = append(a.priority[:idx], a.priority[idx+1:]...)
	a.priority = append(a.priority, uid)
}

// allocMUID returns the next multiplex-table key, wrapping past zero (zero
// is reserved to mean "no entry" on a downstream's multiplexID field).
func (a *Agent) allocMUID() uint32 {
	a.nextMUID++
	if a.nextMUID == 0 {
		a.nextMUID = 1
	}
	return a.nextMUID
}
