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

// Package routing compiles the configured sites into one router per listen
// port. The routers are immutable once built; a reload builds a fresh set
// and swaps them onto the running listeners.
package routing

import (
	"net/http"
	"strconv"

	"github.com/cbltserver/cblt/pkg/config"
	encoding "github.com/cbltserver/cblt/pkg/encoding/handler"
	"github.com/cbltserver/cblt/pkg/frontend"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/proxy/forwarder"
	"github.com/cbltserver/cblt/pkg/proxy/handlers"
	meth "github.com/cbltserver/cblt/pkg/proxy/methods"
	"github.com/cbltserver/cblt/pkg/router"
	"github.com/cbltserver/cblt/pkg/router/lm"
)

// handler type labels for metrics
const (
	handlerTypeStatic   = "static"
	handlerTypeProxy    = "proxy"
	handlerTypeRedirect = "redirect"
)

// Port is the compiled routing state for one listen port
type Port struct {
	Number int
	TLS    bool
	Router router.Router
}

// PortRouters maps a listen port number to its compiled routing state
type PortRouters map[int]*Port

// ListenerName returns the name the port's listener is registered under
func (p *Port) ListenerName() string {
	if p.TLS {
		return "tls:" + strconv.Itoa(p.Number)
	}
	return "http:" + strconv.Itoa(p.Number)
}

// BuildPortRouters compiles the Config's sites into one router per listen
// port, registering routes in site declaration order so that the
// first-declared directive wins among routes of equal specificity
func BuildPortRouters(c *config.Config) (PortRouters, error) {
	ports := make(PortRouters)
	for _, site := range c.Sites {
		n := site.EffectivePort(c.Frontend.ListenPort, c.Frontend.TLSListenPort)
		p, ok := ports[n]
		if !ok {
			p = &Port{Number: n, TLS: site.ServesTLS(), Router: lm.NewRouter()}
			ports[n] = p
		}
		if err := registerSite(p, site, c); err != nil {
			return nil, err
		}
	}
	if err := registerTLSUpgrades(ports, c); err != nil {
		return nil, err
	}
	return ports, nil
}

// registerSite adds the site's directives to the port's router
func registerSite(p *Port, site *config.Site, c *config.Config) error {
	hosts := []string{site.HostPattern}
	for _, d := range site.Directives {
		var h http.Handler
		var methods []string
		var handlerType string
		switch d.Type {
		case config.DirectiveServe:
			h = encoding.HandleCompression(handlers.NewStaticFileHandler(
				d.Root, c.Main.IndexFile, c.Main.EnableDirListing))
			methods = meth.GetAndHead()
			handlerType = handlerTypeStatic
		case config.DirectiveReverseProxy:
			f, err := forwarder.New(site.HostPattern, d.Upstream, c.Proxy)
			if err != nil {
				return &config.Error{File: c.ConfigFilePath(), Line: d.Line,
					Directive: "reverse_proxy", Err: err}
			}
			h = f
			methods = meth.AllHTTPMethods()
			handlerType = handlerTypeProxy
		case config.DirectiveRedirect:
			h = handlers.NewRedirectHandler(d.Target, d.RedirectCode)
			methods = meth.AllHTTPMethods()
			handlerType = handlerTypeRedirect
		default:
			continue
		}
		h = frontend.Observe(site.HostPattern, handlerType, d.PathPrefix, h)
		if err := p.Router.RegisterRoute(d.PathPrefix, hosts, methods,
			true, h); err != nil {
			return err
		}
		logger.Debug("route registered", logging.Pairs{
			"port": p.Number, "host": site.HostPattern,
			"path": d.PathPrefix, "handler": handlerType})
	}
	return nil
}

// registerTLSUpgrades routes plaintext requests for tls-serving sites on the
// default tls port to their https equivalent. The upgrade is registered
// after all plaintext sites, so an explicit plaintext route for the same
// host and path keeps precedence.
func registerTLSUpgrades(ports PortRouters, c *config.Config) error {
	if c.Main.DisableHTTPRedirect {
		return nil
	}
	var hosts []string
	for _, site := range c.Sites {
		if site.ServesTLS() && site.EffectivePort(c.Frontend.ListenPort,
			c.Frontend.TLSListenPort) == c.Frontend.TLSListenPort {
			hosts = append(hosts, site.HostPattern)
		}
	}
	if len(hosts) == 0 {
		return nil
	}
	n := c.Frontend.ListenPort
	p, ok := ports[n]
	if !ok {
		p = &Port{Number: n, Router: lm.NewRouter()}
		ports[n] = p
	}
	if p.TLS {
		// the plaintext default port is tls-occupied by explicit
		// configuration; nothing to upgrade
		return nil
	}
	h := handlers.NewTLSRedirectHandler(c.Frontend.TLSListenPort)
	return p.Router.RegisterRoute("/", hosts, meth.AllHTTPMethods(), true, h)
}
