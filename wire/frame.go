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

package wire

import "errors"

// Protocol constants, fixed and wire-visible.
const (
	MsgMaxData   = 2048             // max payload bytes per frame
	MaxMsgs      = 16                // max fragments per logical command
	MaxTotalData = MsgMaxData * MaxMsgs // max total payload per logical command
	MaxIDLen     = 64                // max session-id length
	MaxDataLen   = 32768              // max session-blob length

	MinIncompletePayload = 1024 // min data_len of any non-final frame

	MaxExpiryMS = 604_800_000 // 7 days, in milliseconds
	MinTimeoutMS = 500        // floor on client-requested session timeout

	CacheMinSize = 64
	CacheMaxSize = 60_000

	ProtoVer    = 0x11
	PatchLevel  = 0x00

	frameHeaderSize = 10 // is_response(1) + request_uid(4) + op_class(1) + operation(1) + complete(1) + data_len(2)
)

// OpClass identifies the class of operation a frame carries. Only USER is
// currently defined; the field is retained on the wire as an evolutionary
// hook (see spec "Protocol version" design note).
type OpClass uint8

const (
	OpClassUser OpClass = 0
)

// Operation identifies the cache command a frame/command carries.
type Operation uint8

const (
	OpAdd    Operation = 0
	OpGet    Operation = 1
	OpRemove Operation = 2
	OpHave   Operation = 3
)

// Valid reports whether (class, op) is a recognized pair.
func (o Operation) Valid(class OpClass) bool {
	if class != OpClassUser {
		return false
	}
	switch o {
	case OpAdd, OpGet, OpRemove, OpHave:
		return true
	default:
		return false
	}
}

// Status is the one-byte response status carried in ADD/GET/REMOVE/HAVE
// response payloads.
type Status uint8

const (
	StatusOK           Status = 0
	StatusNotOK        Status = 1
	StatusDisconnected Status = 2 // multiplexer-generated only; servers never emit this

	// ADD-specific error codes, per spec section 4.5.
	StatusAddCorrupt         Status = 100
	StatusAddMatchingSession Status = 101
	StatusAddTimeoutRange    Status = 102
	StatusAddIDRange         Status = 103
	StatusAddDataRange       Status = 104
)

// Byte returns the one-byte wire encoding of the status.
func (s Status) Byte() byte { return byte(s) }

// Sentinel errors for the abstract error taxonomy of spec section 7. Callers
// above the layer that owns the failing resource see only these, or a plain
// bool/enumerated code, never an internal cause.
var (
	ErrProtocol = errors.New("wire: protocol error")
	ErrCapacity = errors.New("wire: capacity exceeded")
	ErrCorrupt  = errors.New("wire: corrupt frame")
	ErrIncomplete = errors.New("wire: incomplete frame")
)

// DecodeResult is the outcome of PreDecode.
type DecodeResult int

const (
	DecodeOK DecodeResult = iota
	DecodeIncomplete
	DecodeCorrupt
)

// Frame is a single wire-level fragment of a logical command.
type Frame struct {
	IsResponse bool
	RequestUID uint32
	OpClass    OpClass
	Operation  Operation
	Complete   bool
	Data       []byte
}

// EncodedSize returns the on-wire size of the frame: header plus payload.
func (f *Frame) EncodedSize() int {
	return frameHeaderSize + len(f.Data)
}

// PreDecode validates the header-visible fields of the frame prefixed at the
// start of buf, without committing to a full decode. It returns DecodeOK only
// if the whole frame is present and well-formed, DecodeIncomplete if
// truncation alone is the issue, and DecodeCorrupt for any other invariant
// violation (oversized data_len, bad op pair, trickle-guard violation, ...).
func PreDecode(buf []byte) DecodeResult {
	if len(buf) < frameHeaderSize {
		return DecodeIncomplete
	}

	isResponse := buf[0]
	opClass := OpClass(buf[5])
	operation := Operation(buf[6])
	complete := buf[7]
	dataLen := uint16(buf[8])<<8 | uint16(buf[9])

	if isResponse > 1 {
		return DecodeCorrupt
	}
	if complete > 1 {
		return DecodeCorrupt
	}
	if dataLen > MsgMaxData {
		return DecodeCorrupt
	}
	if !operation.Valid(opClass) {
		return DecodeCorrupt
	}
	if complete == 0 && dataLen < MinIncompletePayload {
		return DecodeCorrupt
	}

	if len(buf) < frameHeaderSize+int(dataLen) {
		return DecodeIncomplete
	}

	return DecodeOK
}

// Decode decodes a frame from the start of buf, returning the number of
// bytes consumed. The caller must have already verified PreDecode(buf) ==
// DecodeOK; Decode does not re-validate header invariants.
func Decode(buf []byte) (*Frame, int, error) {
	if len(buf) < frameHeaderSize {
		return nil, 0, ErrIncomplete
	}

	c := NewCursor(buf)

	isResponse, _ := c.DecodeU8()
	requestUID, _ := c.DecodeU32()
	opClass, _ := c.DecodeU8()
	operation, _ := c.DecodeU8()
	complete, _ := c.DecodeU8()
	dataLen, err := c.DecodeU16()
	if err != nil {
		return nil, 0, ErrIncomplete
	}

	data, err := c.DecodeBytes(int(dataLen))
	if err != nil {
		return nil, 0, ErrIncomplete
	}

	// Decode never aliases the caller's buffer beyond this call's lifetime
	// guarantees; copy so the plug can safely reuse/grow its read buffer.
	cp := make([]byte, len(data))
	copy(cp, data)

	f := &Frame{
		IsResponse: isResponse == 1,
		RequestUID: requestUID,
		OpClass:    OpClass(opClass),
		Operation:  Operation(operation),
		Complete:   complete == 1,
		Data:       cp,
	}
	return f, c.Off, nil
}

// Encode encodes the frame into out, returning the number of bytes written.
// It fails with ErrShortBuffer if out is smaller than EncodedSize().
func Encode(f *Frame, out []byte) (int, error) {
	if len(out) < f.EncodedSize() {
		return 0, ErrShortBuffer
	}

	c := NewCursor(out)

	var isResponse uint8
	if f.IsResponse {
		isResponse = 1
	}
	var complete uint8
	if f.Complete {
		complete = 1
	}

	_ = c.EncodeU8(isResponse)
	_ = c.EncodeU32(f.RequestUID)
	_ = c.EncodeU8(uint8(f.OpClass))
	_ = c.EncodeU8(uint8(f.Operation))
	_ = c.EncodeU8(complete)
	_ = c.EncodeU16(uint16(len(f.Data)))
	_ = c.EncodeBytes(f.Data)

	return c.Off, nil
}

// StartResponse stamps response as the response counterpart to request: same
// request id/op-class/operation, is_response=1, complete=1, empty payload.
// It fails if request is itself a response frame.
func StartResponse(request *Frame, response *Frame) error {
	if request.IsResponse {
		return ErrProtocol
	}
	response.IsResponse = true
	response.RequestUID = request.RequestUID
	response.OpClass = request.OpClass
	response.Operation = request.Operation
	response.Complete = true
	response.Data = nil
	return nil
}
