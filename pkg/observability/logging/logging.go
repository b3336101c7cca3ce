/*
 * Copyright 2024 The Cblt Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging provides a leveled, structured (logfmt-style) logger
package logging

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cbltserver/cblt/pkg/observability/logging/level"
	"github.com/cbltserver/cblt/pkg/observability/logging/options"
	tstr "github.com/cbltserver/cblt/pkg/util/strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	_ Logger    = &logger{}
	_ io.Writer = &logger{}
)

type Logger interface {
	SetLogLevel(level.Level)
	SetLogAsynchronous(bool)
	Level() level.Level
	Close()
	//
	Log(logLevel level.Level, event string, detail Pairs)
	Debug(event string, detail Pairs)
	Info(event string, detail Pairs)
	Warn(event string, detail Pairs)
	Error(event string, detail Pairs)
	Fatal(code int, event string, detail Pairs)
	//
	// These funcs log synchronously even if the logger is set to Asynchronous
	LogSynchronous(logLevel level.Level, event string, detail Pairs)
	WarnSynchronous(event string, detail Pairs)
	ErrorSynchronous(event string, detail Pairs)
	//
	WarnOnce(key, event string, detail Pairs) bool
	ErrorOnce(key, event string, detail Pairs) bool
	HasLoggedOnce(logLevel level.Level, key string) bool
}

type logFunc func(level.Level, string, Pairs)

// Pairs represents a key=value pair that helps to describe a log event
type Pairs map[string]any

// New returns a Logger for the provided logging options. When a log file is
// configured, output is rotated with lumberjack; otherwise it goes to stdout.
func New(o *options.Options) Logger {
	if o == nil {
		o = options.New()
	}
	l := &logger{now: time.Now}
	l.logFunc = l.logAsynchronous
	if o.LogFile == "" {
		l.writer = os.Stdout
	} else {
		l.writer = &lumberjack.Logger{
			Filename:   o.LogFile,
			MaxSize:    256, // megabytes
			MaxBackups: 80,
			MaxAge:     7,    // days
			Compress:   true, // compress rolled backups
		}
	}
	if c, ok := l.writer.(io.Closer); ok && c != nil {
		l.closer = c
	}
	l.SetLogLevel(level.Level(o.LogLevel))
	return l
}

// NoopLogger returns a Logger which discards all events
func NoopLogger() Logger {
	return &logger{
		logFunc: func(level.Level, string, Pairs) {},
		levelID: level.InfoID,
		level:   level.Info,
		now:     time.Now,
	}
}

// StreamLogger returns a Logger writing to the provided io.Writer
func StreamLogger(w io.Writer, logLevel level.Level) Logger {
	l := &logger{writer: w, now: time.Now}
	l.logFunc = l.logAsynchronous
	if c, ok := l.writer.(io.Closer); ok && c != nil {
		l.closer = c
	}
	l.SetLogLevel(logLevel)
	return l
}

// ConsoleLogger returns a Logger writing to stdout
func ConsoleLogger(logLevel level.Level) Logger {
	l := &logger{writer: os.Stdout, now: time.Now}
	l.logFunc = l.logAsynchronous
	l.SetLogLevel(logLevel)
	return l
}

type logger struct {
	level          level.Level
	levelID        level.ID
	writer         io.Writer
	closer         io.Closer
	mtx            sync.Mutex
	onceRanEntries sync.Map
	logFunc        logFunc
	now            func() time.Time
}

func (l *logger) Write(b []byte) (int, error) {
	if l.writer == nil {
		return 0, nil
	}
	return l.writer.Write(b)
}

func (l *logger) SetLogLevel(logLevel level.Level) {
	id := level.GetID(logLevel)
	if id == 0 {
		l.WarnOnce("loglevel."+string(logLevel),
			"unknown log level; using info",
			Pairs{"providedLevel": logLevel})
		logLevel = level.Info
		id = level.InfoID
	}
	l.level = logLevel
	l.levelID = id
}

func (l *logger) SetLogAsynchronous(asyncEnabled bool) {
	if asyncEnabled {
		l.logFunc = l.logAsynchronous
	} else {
		l.logFunc = l.log
	}
}

func (l *logger) Log(logLevel level.Level, event string, detail Pairs) {
	lid := level.GetID(logLevel)
	if lid == 0 || lid < l.levelID {
		return
	}
	l.logFunc(logLevel, event, detail)
}

func (l *logger) logConditionally(lvl level.Level, levelID level.ID,
	event string, detail Pairs, f logFunc) {
	if l.levelID > levelID {
		return
	}
	f(lvl, event, detail)
}

func (l *logger) Debug(event string, detail Pairs) {
	l.logConditionally(level.Debug, level.DebugID, event, detail, l.logFunc)
}

func (l *logger) Info(event string, detail Pairs) {
	l.logConditionally(level.Info, level.InfoID, event, detail, l.logFunc)
}

func (l *logger) Warn(event string, detail Pairs) {
	l.logConditionally(level.Warn, level.WarnID, event, detail, l.logFunc)
}

func (l *logger) Error(event string, detail Pairs) {
	l.logConditionally(level.Error, level.ErrorID, event, detail, l.logFunc)
}

func (l *logger) LogSynchronous(logLevel level.Level, event string, detail Pairs) {
	lid := level.GetID(logLevel)
	if lid == 0 || lid < l.levelID {
		return
	}
	l.log(logLevel, event, detail)
}

func (l *logger) WarnSynchronous(event string, detail Pairs) {
	l.logConditionally(level.Warn, level.WarnID, event, detail, l.log)
}

func (l *logger) ErrorSynchronous(event string, detail Pairs) {
	l.logConditionally(level.Error, level.ErrorID, event, detail, l.log)
}

func (l *logger) Fatal(code int, event string, detail Pairs) {
	l.log(level.Fatal, event, detail)
	if code < 0 {
		// tests send a negative code to avoid exiting the test process
		return
	}
	if code == 0 {
		code = 1
	}
	os.Exit(code)
}

func (l *logger) logOnce(logLevel level.Level, lid level.ID,
	key, event string, detail Pairs) bool {
	if lid == 0 || lid < l.levelID || l.HasLoggedOnce(logLevel, key) {
		return false
	}
	key = string(logLevel) + "." + key
	_, ok := l.onceRanEntries.Load(key)
	if !ok {
		// load-or-store is more expensive than load, so check via load first
		// and use LoadOrStore to ensure that log is only called once
		_, ok = l.onceRanEntries.LoadOrStore(key, true)
		if !ok {
			l.log(logLevel, event, detail)
		}
	}
	return !ok
}

func (l *logger) WarnOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Warn, level.WarnID, key, event, detail)
}

func (l *logger) ErrorOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Error, level.ErrorID, key, event, detail)
}

func (l *logger) HasLoggedOnce(logLevel level.Level, key string) bool {
	key = string(logLevel) + "." + key
	_, ok := l.onceRanEntries.Load(key)
	return ok
}

func (l *logger) logAsynchronous(logLevel level.Level, event string, detail Pairs) {
	go l.log(logLevel, event, detail)
}

type item struct {
	key string
	val string
}

func (i *item) Bytes() []byte {
	return append([]byte(i.key), append([]byte(equal), []byte(i.val)...)...)
}

const (
	space   = " "
	equal   = "="
	newline = "\n"
)

func (l *logger) log(logLevel level.Level, event string, detail Pairs) {
	if l.writer == nil {
		return
	}
	ts := l.now()
	ld := len(detail)
	if strings.HasPrefix(event, space) || strings.HasSuffix(event, space) {
		event = strings.TrimSpace(event)
	}

	logLine := []byte(
		"time=" + ts.UTC().Format(time.RFC3339Nano) + space +
			"app=cblt" + space +
			"level=" + string(logLevel) + space +
			"event=" + quoteAsNeeded(event),
	)

	if ld > 0 {
		logLine = append(logLine, []byte(space)...)
		keyPairs := make([]item, ld)
		var i int
		for k, v := range detail {
			var s string
			var ok bool
			if s, ok = v.(string); ok {
				s = quoteAsNeeded(s)
			} else if stringer, ok := v.(fmt.Stringer); ok {
				s = quoteAsNeeded(stringer.String())
			} else if err, ok := v.(error); ok {
				s = quoteAsNeeded(err.Error())
			} else {
				s = fmt.Sprintf("%v", v)
			}
			keyPairs[i] = item{k, s}
			i++
		}
		slices.SortFunc(keyPairs, func(a, b item) int {
			return cmp.Compare(a.key, b.key)
		})
		i = 0
		for _, v := range keyPairs {
			logLine = append(logLine, v.Bytes()...)
			i++
			if i < ld {
				logLine = append(logLine, []byte(space)...)
			}
		}
	}
	l.mtx.Lock()
	l.writer.Write(append(logLine, []byte(newline)...))
	l.mtx.Unlock()
}

func quoteAsNeeded(input string) string {
	if !strings.Contains(input, " ") {
		return input
	}
	return `"` + tstr.EscapeQuotes(input) + `"`
}

func (l *logger) Level() level.Level {
	return l.level
}

func (l *logger) Close() {
	if l.closer != nil {
		l.closer.Close()
	}
}
