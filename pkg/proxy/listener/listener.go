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

// Package listener provides the server's connection listeners: bounded,
// metrics-observed, reload-swappable and gracefully drainable
package listener

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cbltserver/cblt/pkg/errors"
	fropt "github.com/cbltserver/cblt/pkg/frontend/options"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	ph "github.com/cbltserver/cblt/pkg/proxy/handlers"
	sw "github.com/cbltserver/cblt/pkg/proxy/tls"

	"golang.org/x/net/netutil"
)

// Listener is the cblt net.Listener implementation
type Listener struct {
	net.Listener
	tlsConfig        *tls.Config
	tlsSwapper       *sw.CertSwapper
	routeSwapper     *ph.SwitchHandler
	server           *http.Server
	handshakeTimeout time.Duration
	exitOnError      bool
}

type observedConnection struct {
	*net.TCPConn
}

func (o *observedConnection) Close() error {
	err := o.TCPConn.Close()
	metrics.ProxyActiveConnections.Dec()
	metrics.ProxyConnectionClosed.Inc()
	return err
}

// Accept implements net.Listener.Accept
func (l *Listener) Accept() (net.Conn, error) {

	metrics.ProxyConnectionRequested.Inc()

	c, err := l.Listener.Accept()
	if err != nil {
		metrics.ProxyConnectionFailed.Inc()
		return c, err
	}

	metrics.ProxyActiveConnections.Inc()
	metrics.ProxyConnectionAccepted.Inc()

	// bound the tls handshake; the server resets the deadline once it
	// begins reading the request header
	if l.tlsConfig != nil && l.handshakeTimeout > 0 {
		c.SetReadDeadline(time.Now().Add(l.handshakeTimeout))
	}

	// this is necessary for HTTP/2 to work
	if t, ok := c.(*net.TCPConn); ok {
		return &observedConnection{t}, nil
	}

	return c, nil
}

// CertSwapper returns the CertSwapper reference from the Listener
func (l *Listener) CertSwapper() *sw.CertSwapper {
	return l.tlsSwapper
}

// RouteSwapper returns the RouteSwapper reference from the Listener
func (l *Listener) RouteSwapper() *ph.SwitchHandler {
	return l.routeSwapper
}

// ListenerGroup is a collection of listeners
type ListenerGroup struct {
	members       map[string]*Listener
	listenersLock sync.Mutex
}

// NewListenerGroup returns a new ListenerGroup
func NewListenerGroup() *ListenerGroup {
	return &ListenerGroup{
		members: make(map[string]*Listener),
	}
}

// NewListener creates a new network listener which obeys the configured max
// connection limit and monitors connections with prometheus metrics.
//
// The limiter blocks waiting for resources to become available whenever
// clients go above the limit.
func NewListener(listenAddress string, listenPort, connectionsLimit int,
	tlsConfig *tls.Config) (net.Listener, error) {

	var listener net.Listener
	var err error

	listenerType := "http"

	if tlsConfig != nil {
		listenerType = "https"
		listener, err = tls.Listen("tcp",
			fmt.Sprintf("%s:%d", listenAddress, listenPort), tlsConfig)
	} else {
		listener, err = net.Listen("tcp",
			fmt.Sprintf("%s:%d", listenAddress, listenPort))
	}
	if err != nil {
		// exit one level above; this usually means the port is in use
		return nil, err
	}

	if connectionsLimit > 0 {
		listener = netutil.LimitListener(listener, connectionsLimit)
		metrics.ProxyMaxConnections.Set(float64(connectionsLimit))
	}

	logger.Debug("starting proxy listener", logging.Pairs{
		"connectionsLimit": connectionsLimit,
		"scheme":           listenerType,
		"address":          listenAddress,
		"port":             listenPort,
	})

	return listener, nil
}

// Get returns the named listener if it exists
func (lg *ListenerGroup) Get(name string) *Listener {
	lg.listenersLock.Lock()
	l, ok := lg.members[name]
	lg.listenersLock.Unlock()
	if ok {
		return l
	}
	return nil
}

// Names returns the names of the group's current members
func (lg *ListenerGroup) Names() []string {
	lg.listenersLock.Lock()
	defer lg.listenersLock.Unlock()
	names := make([]string, 0, len(lg.members))
	for k := range lg.members {
		names = append(names, k)
	}
	return names
}

// StartListener starts a new listener serving router and adds it to the
// group. It blocks until the listener closes. When f is non-nil, a failed
// startup invokes f and the process exits.
func (lg *ListenerGroup) StartListener(listenerName, address string, port,
	connectionsLimit int, tlsConfig *tls.Config, router http.Handler,
	o *fropt.Options, f func()) error {
	l := &Listener{routeSwapper: ph.NewSwitchHandler(router), exitOnError: f != nil}
	if tlsConfig != nil && len(tlsConfig.Certificates) > 0 {
		l.tlsConfig = tlsConfig
		l.tlsSwapper = sw.NewSwapper(tlsConfig.Certificates)
		l.handshakeTimeout = o.TLSHandshakeTimeout()
		// hand cert selection to the swapper so a reload swaps certs
		// without restarting the listener
		tlsConfig.GetCertificate = l.tlsSwapper.GetCert
		tlsConfig.Certificates = nil
	}

	var err error
	l.Listener, err = NewListener(address, port, connectionsLimit, l.tlsConfig)
	if err != nil {
		logger.ErrorSynchronous("listener startup failed",
			logging.Pairs{"listenerName": listenerName, "detail": err})
		if f != nil {
			f()
		}
		return err
	}
	logger.Info("listener starting", logging.Pairs{
		"listenerName": listenerName, "port": port, "address": address})

	lg.listenersLock.Lock()
	lg.members[listenerName] = l
	lg.listenersLock.Unlock()

	svr := &http.Server{
		Handler:           l.routeSwapper,
		ReadHeaderTimeout: o.ReadHeaderTimeout(),
		IdleTimeout:       o.IdleTimeout(),
	}
	if l.tlsConfig != nil {
		svr.TLSConfig = l.tlsConfig
	}
	l.server = svr
	err = svr.Serve(l)
	if err != nil && err != http.ErrServerClosed {
		logger.ErrorSynchronous("listener stopping",
			logging.Pairs{"listenerName": listenerName, "detail": err})
		if l.exitOnError {
			defer func() {
				os.Exit(1) // exit via defer to allow prior defers to run
			}()
		}
		return err
	}
	return nil
}

// DrainAndClose stops accepting on the named listener, lets in-flight
// requests finish for up to drainWait, then closes it
func (lg *ListenerGroup) DrainAndClose(listenerName string, drainWait time.Duration) error {
	lg.listenersLock.Lock()
	if l, ok := lg.members[listenerName]; ok && l != nil {
		l.exitOnError = false
		delete(lg.members, listenerName)
		lg.listenersLock.Unlock()
		if l.Listener == nil {
			return errors.ErrNilListener
		}
		if l.server != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), drainWait)
				defer cancel()
				l.server.Shutdown(ctx)
			}()
		}
		return nil
	}
	lg.listenersLock.Unlock()
	return errors.ErrNoSuchListener
}

// DrainAndCloseAll drains every listener in the group concurrently and
// blocks until all in-flight requests complete or drainWait elapses. It is
// used at process shutdown, where DrainAndClose's asynchronous drain would
// let the process exit with requests still in flight.
func (lg *ListenerGroup) DrainAndCloseAll(drainWait time.Duration) {
	lg.listenersLock.Lock()
	members := make(map[string]*Listener, len(lg.members))
	for name, l := range lg.members {
		members[name] = l
		delete(lg.members, name)
	}
	lg.listenersLock.Unlock()
	var wg sync.WaitGroup
	for _, l := range members {
		if l == nil || l.server == nil {
			continue
		}
		l.exitOnError = false
		wg.Add(1)
		go func(l *Listener) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), drainWait)
			defer cancel()
			l.server.Shutdown(ctx)
		}(l)
	}
	wg.Wait()
}

// UpdateRouter swaps out the router for the named listener with the
// provided one
func (lg *ListenerGroup) UpdateRouter(listenerName string, router http.Handler) error {
	lg.listenersLock.Lock()
	defer lg.listenersLock.Unlock()
	if l, ok := lg.members[listenerName]; ok && l != nil {
		l.routeSwapper.Update(router)
		return nil
	}
	return errors.ErrNoSuchListener
}

// UpdateRouters swaps out the routers for all named listeners in the
// provided map
func (lg *ListenerGroup) UpdateRouters(routers map[string]http.Handler) {
	lg.listenersLock.Lock()
	defer lg.listenersLock.Unlock()
	for name, router := range routers {
		if l, ok := lg.members[name]; ok && l != nil && router != nil {
			l.routeSwapper.Update(router)
		}
	}
}
