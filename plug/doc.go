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

// Package plug implements the bidirectional, fragmenting, request/response
// message pipe that sits atop a byte stream. A Plug owns one read half and
// one write half; each half is an independent finite-state machine with at
// most one reassembled inbound command and at most one in-flight outbound
// command at a time. Composition errors on the write side roll back cleanly;
// corruption on the read side tears the plug down.
//
// Plug never touches the network itself: it is driven by repeated calls to
// IO, which pulls bytes from and pushes bytes to a ByteStream implementation
// supplied by the caller (see the transport package for the production
// net.Conn-backed implementation). This keeps the frame reassembly and
// fragmentation state machine fully unit-testable against in-memory streams.
package plug
