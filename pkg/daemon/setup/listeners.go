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

package setup

import (
	"crypto/tls"
	"time"

	"github.com/cbltserver/cblt/pkg/config"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	"github.com/cbltserver/cblt/pkg/observability/pprof"
	"github.com/cbltserver/cblt/pkg/proxy/listener"
	meth "github.com/cbltserver/cblt/pkg/proxy/methods"
	ttls "github.com/cbltserver/cblt/pkg/proxy/tls"
	"github.com/cbltserver/cblt/pkg/router"
	"github.com/cbltserver/cblt/pkg/router/lm"
	"github.com/cbltserver/cblt/pkg/routing"
)

const mlName = "metricsListener"

var lg = listener.NewListenerGroup()

// applyListenerConfigs reconciles the running listener group against the
// per-port routers compiled from conf: routers on already-listening ports
// are swapped in place, new ports get listeners, and ports no longer in
// the config are drained and closed. It returns false when any part of
// the config could not be applied
func applyListenerConfigs(conf, oldConf *config.Config,
	ports routing.PortRouters, errorFunc func()) bool {

	if conf == nil || conf.Frontend == nil {
		return false
	}

	hasOldFC := oldConf != nil && oldConf.Frontend != nil
	hasOldMC := oldConf != nil && oldConf.Metrics != nil
	drainTimeout := conf.Frontend.DrainTimeout()

	if hasOldFC && oldConf.Frontend.ConnectionsLimit != conf.Frontend.ConnectionsLimit {
		logger.Warn("connections limit change requires a process restart. listeners not updated.",
			logging.Pairs{"oldLimit": oldConf.Frontend.ConnectionsLimit,
				"newLimit": conf.Frontend.ConnectionsLimit})
		metrics.LastReloadSuccessful.Set(0)
		return false
	}

	tlsChanged := ttls.OptionsChanged(conf, oldConf)

	ok := true
	desired := make(map[string]bool, len(ports))
	for port, p := range ports {
		name := p.ListenerName()
		desired[name] = true

		if l := lg.Get(name); l != nil {
			// port is already being served; swap the router, and for tls
			// listeners refresh the certificate set if it changed
			if p.TLS && tlsChanged {
				certs, err := ttls.CertsForPort(conf, port)
				if err != nil {
					handleStartupIssue("tls certificate refresh failed; "+
						"the previous certificates remain in service",
						logging.Pairs{"listenerName": name, "detail": err.Error()},
						errorFunc)
					ok = false
				} else if cs := l.CertSwapper(); cs != nil {
					cs.SetCerts(certs)
				}
			}
			lg.UpdateRouter(name, p.Router)
			continue
		}

		var tlsConfig *tls.Config
		if p.TLS {
			certs, err := ttls.CertsForPort(conf, port)
			if err != nil {
				handleStartupIssue("unable to start tls listener due to certificate error",
					logging.Pairs{"listenerName": name, "detail": err.Error()},
					errorFunc)
				ok = false
				continue
			}
			tlsConfig = &tls.Config{Certificates: certs}
		}
		go lg.StartListener(name, conf.Frontend.ListenAddress, port,
			conf.Frontend.ConnectionsLimit, tlsConfig, p.Router,
			conf.Frontend, errorFunc)
	}

	// drain ports that are no longer configured
	for _, name := range lg.Names() {
		if name == mlName || desired[name] {
			continue
		}
		lg.DrainAndClose(name, drainTimeout)
	}

	applyMetricsListenerConfig(conf, oldConf, hasOldMC, errorFunc)
	return ok
}

func applyMetricsListenerConfig(conf, oldConf *config.Config,
	hasOldMC bool, errorFunc func()) {

	if conf.Metrics == nil {
		return
	}
	changed := !hasOldMC ||
		conf.Metrics.ListenAddress != oldConf.Metrics.ListenAddress ||
		conf.Metrics.ListenPort != oldConf.Metrics.ListenPort
	if !changed {
		return
	}
	if hasOldMC && oldConf.Metrics.ListenPort > 0 {
		lg.DrainAndClose(mlName, 0)
	}
	if conf.Metrics.ListenPort <= 0 {
		return
	}
	mr := lm.NewRouter()
	mr.SetMatchingScheme(router.MatchPathPrefix) // metrics router ignores hostnames
	mr.RegisterRoute("/metrics", nil, meth.GetAndHead(), false, metrics.Handler())
	if conf.Metrics.PprofEnabled {
		pprof.RegisterRoutes(mlName, mr)
	}
	go lg.StartListener(mlName, conf.Metrics.ListenAddress,
		conf.Metrics.ListenPort, conf.Frontend.ConnectionsLimit, nil, mr,
		conf.Frontend, errorFunc)
}

// Shutdown drains and closes every listener in the group, blocking until
// in-flight requests complete or drainWait elapses
func Shutdown(drainWait time.Duration) {
	lg.DrainAndCloseAll(drainWait)
}
