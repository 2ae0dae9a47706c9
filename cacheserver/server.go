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

package cacheserver

import (
	"errors"
	"net"
	"time"

	"github.com/nabbar/tlscached/cache"
	"github.com/nabbar/tlscached/logging"
	"github.com/nabbar/tlscached/metrics"
	"github.com/nabbar/tlscached/plug"
	"github.com/nabbar/tlscached/transport"
)

// ErrUnknownClient is returned by RemoveClient for an id the server does not
// own.
var ErrUnknownClient = errors.New("cacheserver: unknown client id")

// Server is the single-threaded cache-server engine: it owns a cache.Cache
// and a set of downstream client plugs, and drives one dispatch per client
// per Tick.
type Server struct {
	store cache.Cache
	log   logging.Logger
	mx    *metrics.Server

	clients map[uint64]*client
	nextID  uint64
	ops     uint64

	// evicted is the store's eviction total already added to mx.Evictions.
	evicted uint64
}

// New returns a Server backed by store. log and mx may be nil; mx being nil
// disables metrics recording.
func New(store cache.Cache, log logging.Logger, mx *metrics.Server) *Server {
	return &Server{
		store:   store,
		log:     log,
		mx:      mx,
		clients: make(map[uint64]*client),
	}
}

// AddClient wraps stream in a server-direction plug and registers it,
// returning the id to later pass to RemoveClient.
func (s *Server) AddClient(stream plug.ByteStream, now time.Time) uint64 {
	s.nextID++
	id := s.nextID

	s.clients[id] = &client{
		id:   id,
		plug: plug.New(stream, 0),
		last: now,
	}

	if s.mx != nil {
		s.mx.ClientCount.Set(float64(len(s.clients)))
	}
	return id
}

// RemoveClient tears down and forgets the client with the given id.
func (s *Server) RemoveClient(id uint64) error {
	c, ok := s.clients[id]
	if !ok {
		return ErrUnknownClient
	}
	_ = c.plug.Close()
	delete(s.clients, id)

	if s.mx != nil {
		s.mx.ClientCount.Set(float64(len(s.clients)))
	}
	return nil
}

// NumClients returns the current number of registered downstream clients.
func (s *Server) NumClients() int {
	return len(s.clients)
}

// Ops returns the cumulative count of completed dispatches, for diagnostics.
func (s *Server) Ops() uint64 {
	return s.ops
}

// Tick runs one pass over every registered client: IO, attempt a read, and
// if a full command arrived, dispatch it and frame the response. Clients
// whose plug fails are torn down; the server itself never fails.
func (s *Server) Tick(now time.Time) {
	var dead []uint64

	for id, c := range s.clients {
		if err := c.plug.IO(); err != nil {
			dead = append(dead, id)
			continue
		}

		uid, op, payload, ok := c.plug.Read(false)
		if !ok {
			continue
		}
		c.last = now

		if err := c.plug.Write(false, uid, op, nil); err != nil {
			dead = append(dead, id)
			continue
		}

		body := dispatch(s.store, now, op, payload)

		if err := c.plug.WriteMore(body); err != nil {
			dead = append(dead, id)
			continue
		}
		if err := c.plug.Commit(); err != nil {
			dead = append(dead, id)
			continue
		}
		if err := c.plug.Consume(); err != nil {
			dead = append(dead, id)
			continue
		}

		s.ops++
		if s.mx != nil {
			s.mx.Dispatched.WithLabelValues(opName(op), statusLabel(op, body)).Inc()
		}

		// push the committed response out now rather than on the next Tick
		if err := c.plug.IO(); err != nil {
			dead = append(dead, id)
		}
	}

	for _, id := range dead {
		if s.log != nil {
			s.log.WithField("client_id", id).Warn("cacheserver: client torn down after plug failure")
		}
		_ = s.RemoveClient(id)
	}

	if s.mx != nil {
		s.mx.SessionCount.Set(float64(s.store.NumItems(now)))
		if ev := s.store.Stats().Evictions; ev > s.evicted {
			s.mx.Evictions.Add(float64(ev - s.evicted))
			s.evicted = ev
		}
	}
}

// Run accepts connections from ln and services them until stop is closed or
// ln.Accept fails, registering each with sel so a Tick fires the moment any
// client has data waiting rather than only on the floor ticker. floor is the
// idle liveness fallback from spec section 5 (500ms); it is what still
// drives Tick when nothing is readable, not the mechanism by which readable
// data gets noticed. This is the single suspension point per tick: the
// select below is the only place this goroutine blocks.
func (s *Server) Run(ln net.Listener, sel *transport.Selector, floor time.Duration, stop <-chan struct{}) error {
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
			id := s.AddClient(sel.Register(conn), time.Now())
			if s.log != nil {
				s.log.WithField("client_id", id).Debug("cacheserver: accepted downstream connection")
			}

		case <-sel.Ready():
			s.Tick(time.Now())

		case <-ticker.C:
			s.Tick(time.Now())

		case err := <-acceptErr:
			return err

		case <-stop:
			return nil
		}
	}
}
