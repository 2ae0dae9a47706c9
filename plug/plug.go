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

package plug

import (
	"errors"
	"io"

	"github.com/nabbar/tlscached/wire"
)

// Flags controlling plug construction.
const (
	// ToServer marks a plug that writes requests and reads responses (the
	// client side of a connection, such as the multiplexer's upstream).
	// Absent, the plug reads requests and writes responses
	// (the server side).
	ToServer = 1 << iota

	// NoFreeConn marks a plug whose underlying ByteStream is borrowed, not
	// owned: Close does not close the stream.
	NoFreeConn
)

// dirState is the finite-state tag of one plug direction half.
type dirState int

const (
	stateEmpty dirState = iota
	stateIO
	stateUser
	stateFull // read half only
)

var (
	// ErrNoWriteInProgress is returned by WriteMore/Commit/Rollback when
	// the write half is not currently composing a command.
	ErrNoWriteInProgress = errors.New("plug: no write in progress")

	// ErrWriteBusy is returned by Write when the write half already holds
	// an in-progress command and resume was not requested.
	ErrWriteBusy = errors.New("plug: write already in progress")

	// ErrNoReadInProgress is returned by Consume when the read half does
	// not currently hold a command awaiting consumption.
	ErrNoReadInProgress = errors.New("plug: no read in progress")

	// ErrClosed is returned by any operation performed on a torn-down plug.
	ErrClosed = errors.New("plug: closed")
)

// Plug is a bidirectional framed message pipe layered over a ByteStream.
type Plug struct {
	stream ByteStream
	owns   bool
	toSrv  bool
	closed bool

	// read half
	rState   dirState
	rUID     uint32
	rOpClass wire.OpClass
	rOp      wire.Operation
	rPayload *growBuf
	rRaw     *growBuf

	// write half
	wState   dirState
	wUID     uint32
	wOpClass wire.OpClass
	wOp      wire.Operation
	wPayload *growBuf
	wRaw     *growBuf
}

// New constructs a Plug over stream with the given flag bits.
func New(stream ByteStream, flags int) *Plug {
	return &Plug{
		stream:   stream,
		owns:     flags&NoFreeConn == 0,
		toSrv:    flags&ToServer != 0,
		rPayload: newGrowBuf(),
		rRaw:     newGrowBuf(),
		wPayload: newGrowBuf(),
		wRaw:     newGrowBuf(),
	}
}

// Close tears the plug down, closing the underlying stream unless it was
// constructed with NoFreeConn.
func (p *Plug) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.owns {
		return p.stream.Close()
	}
	return nil
}

// expectedIncomingIsResponse reports what IsResponse must be on inbound
// frames for this plug's direction: a ToServer plug reads responses, a
// server-side plug reads requests.
func (p *Plug) expectedIncomingIsResponse() bool {
	return p.toSrv
}

// outgoingIsResponse reports what IsResponse must be on outbound frames:
// a server-side plug emits responses, a ToServer plug emits requests.
func (p *Plug) outgoingIsResponse() bool {
	return !p.toSrv
}

// IO pulls any available inbound bytes from the stream, advances the read
// reassembly as far as it can, and pushes any queued outbound bytes to the
// stream. It returns wire.ErrProtocol on framing corruption (the plug should
// be torn down by the caller) or a transport error from the underlying
// stream (other than ErrWouldBlock).
func (p *Plug) IO() error {
	if p.closed {
		return ErrClosed
	}

	if err := p.pullInbound(); err != nil {
		return err
	}
	if err := p.reassemble(); err != nil {
		return err
	}
	if err := p.pushOutbound(); err != nil {
		return err
	}
	return nil
}

func (p *Plug) pullInbound() error {
	scratch := make([]byte, 4096)
	for {
		n, err := p.stream.Read(scratch)
		if n > 0 {
			p.rRaw.Append(scratch[:n])
		}
		if err == nil {
			if n == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, ErrWouldBlock) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return err
		}
		return err
	}
}

func (p *Plug) pushOutbound() error {
	for p.wRaw.Len() > 0 {
		n, err := p.stream.Write(p.wRaw.Bytes())
		if n > 0 {
			p.wRaw.Consume(n)
		}
		if err == nil {
			if n == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, ErrWouldBlock) {
			return nil
		}
		return err
	}
	return nil
}

// reassemble decodes as many complete frames as are present in rRaw,
// applying the inbound fragment-join rules from spec section 4.3.
func (p *Plug) reassemble() error {
	for {
		switch wire.PreDecode(p.rRaw.Bytes()) {
		case wire.DecodeIncomplete:
			return nil
		case wire.DecodeCorrupt:
			return wire.ErrProtocol
		}

		f, n, err := wire.Decode(p.rRaw.Bytes())
		if err != nil {
			return wire.ErrProtocol
		}
		p.rRaw.Consume(n)

		if f.IsResponse != p.expectedIncomingIsResponse() {
			return wire.ErrProtocol
		}

		switch p.rState {
		case stateEmpty:
			p.rUID = f.RequestUID
			p.rOpClass = f.OpClass
			p.rOp = f.Operation
			p.rPayload.Reset()
			p.rState = stateIO
		case stateIO:
			if f.RequestUID != p.rUID || f.OpClass != p.rOpClass || f.Operation != p.rOp {
				return wire.ErrProtocol
			}
		default:
			// FULL or USER: a new frame must not arrive before the
			// previous command has been consumed.
			return wire.ErrProtocol
		}

		if p.rPayload.Len()+len(f.Data) > wire.MaxTotalData {
			return wire.ErrProtocol
		}
		p.rPayload.Append(f.Data)

		if f.Complete {
			p.rState = stateFull
			return nil
		}
	}
}

// Read returns the currently reassembled inbound command, if any. If the
// read half is already in the USER state (a command was already returned by
// a previous Read and not yet Consumed), Read returns the same command again
// only if resume is set; otherwise it reports no command available.
func (p *Plug) Read(resume bool) (uid uint32, op wire.Operation, payload []byte, ok bool) {
	switch p.rState {
	case stateFull:
		p.rState = stateUser
		return p.rUID, p.rOp, p.rPayload.Bytes(), true
	case stateUser:
		if resume {
			return p.rUID, p.rOp, p.rPayload.Bytes(), true
		}
		return 0, 0, nil, false
	default:
		return 0, 0, nil, false
	}
}

// Consume discards the currently read command and attempts to advance the
// next buffered command forward immediately.
func (p *Plug) Consume() error {
	if p.rState != stateUser {
		return ErrNoReadInProgress
	}
	p.rState = stateEmpty
	p.rPayload.Reset()
	return p.reassemble()
}

// Write starts composing an outbound command. It fails with ErrWriteBusy if
// the write half already holds an in-progress command and resume is false.
// An empty payload is accepted.
func (p *Plug) Write(resume bool, uid uint32, op wire.Operation, payload []byte) error {
	if p.wState == stateUser && !resume {
		return ErrWriteBusy
	}
	p.wUID = uid
	p.wOpClass = wire.OpClassUser
	p.wOp = op
	p.wPayload.Reset()
	if len(payload) > 0 {
		p.wPayload.Append(payload)
	}
	p.wState = stateUser
	return nil
}

// WriteMore appends to the in-progress outbound command.
func (p *Plug) WriteMore(data []byte) error {
	if p.wState != stateUser {
		return ErrNoWriteInProgress
	}
	if p.wPayload.Len()+len(data) > wire.MaxTotalData {
		return wire.ErrCapacity
	}
	p.wPayload.Append(data)
	return nil
}

// Rollback discards the in-progress outbound command. The underlying send
// buffer is left byte-for-byte identical to its pre-Write state, since
// fragmentation/encoding happens only at Commit.
func (p *Plug) Rollback() error {
	if p.wState != stateUser {
		return ErrNoWriteInProgress
	}
	p.wState = stateEmpty
	p.wPayload.Reset()
	return nil
}

// Commit marks the in-progress outbound command complete and fragments it
// into frames appended to the send buffer, per the fragmentation rules of
// spec section 4.3: every frame but the last carries exactly wire.MsgMaxData
// bytes, the last carries the remainder and is marked complete.
func (p *Plug) Commit() error {
	if p.wState != stateUser {
		return ErrNoWriteInProgress
	}

	payload := p.wPayload.Bytes()
	isResponse := p.outgoingIsResponse()

	off := 0
	for {
		remain := len(payload) - off
		chunk := remain
		complete := true
		if chunk > wire.MsgMaxData {
			chunk = wire.MsgMaxData
			complete = false
		}

		f := &wire.Frame{
			IsResponse: isResponse,
			RequestUID: p.wUID,
			OpClass:    p.wOpClass,
			Operation:  p.wOp,
			Complete:   complete,
			Data:       payload[off : off+chunk],
		}

		buf := make([]byte, f.EncodedSize())
		if _, err := wire.Encode(f, buf); err != nil {
			return err
		}
		p.wRaw.Append(buf)

		off += chunk
		if complete {
			break
		}
	}

	p.wState = stateEmpty
	p.wPayload.Reset()
	return nil
}
