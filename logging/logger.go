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

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value pairs attached to a single log entry.
type Fields = logrus.Fields

// Logger is the structured logger surface consumed across this module.
// entry is the implementation backed by logrus.
type Logger interface {
	WithField(key string, val interface{}) Logger
	WithFields(f Fields) Logger
	WithError(err error) Logger

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	SetOutput(w io.Writer)
}

type entry struct {
	e *logrus.Entry
}

// New builds a Logger at the given level ("debug", "info", "warn", "error";
// defaults to "info" on an unrecognized value) formatting as "text" or
// "json" (defaults to "text").
func New(level string, format string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &entry{e: logrus.NewEntry(l)}
}

func (n *entry) WithField(key string, val interface{}) Logger {
	return &entry{e: n.e.WithField(key, val)}
}

func (n *entry) WithFields(f Fields) Logger {
	return &entry{e: n.e.WithFields(f)}
}

func (n *entry) WithError(err error) Logger {
	return &entry{e: n.e.WithError(err)}
}

func (n *entry) Debug(args ...interface{}) { n.e.Debug(args...) }
func (n *entry) Info(args ...interface{})  { n.e.Info(args...) }
func (n *entry) Warn(args ...interface{})  { n.e.Warn(args...) }
func (n *entry) Error(args ...interface{}) { n.e.Error(args...) }

func (n *entry) SetOutput(w io.Writer) {
	n.e.Logger.SetOutput(w)
}
