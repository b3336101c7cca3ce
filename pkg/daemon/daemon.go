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

// Package daemon runs the cblt process as an HTTP(S) listener based on the
// provided configuration
package daemon

import (
	"context"
	"fmt"
	"os"
	goruntime "runtime"
	"sync"

	"github.com/cbltserver/cblt/pkg/appinfo"
	"github.com/cbltserver/cblt/pkg/appinfo/usage"
	"github.com/cbltserver/cblt/pkg/daemon/instance"
	"github.com/cbltserver/cblt/pkg/daemon/setup"
	"github.com/cbltserver/cblt/pkg/daemon/signaling"
	"github.com/cbltserver/cblt/pkg/errors"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	ttls "github.com/cbltserver/cblt/pkg/proxy/tls"
	"github.com/cbltserver/cblt/pkg/routing"
)

var mtx sync.Mutex
var wasStarted bool

func Start() error {
	mtx.Lock()
	defer mtx.Unlock()
	if wasStarted {
		return errors.ErrServerAlreadyStarted
	}

	metrics.BuildInfo.WithLabelValues(goruntime.Version(),
		appinfo.GitCommitID, appinfo.Version).Set(1)

	conf, err := setup.LoadAndValidate()
	if err != nil {
		return err
	}

	// if it's a -version command, print version and exit
	if conf.Flags != nil && conf.Flags.PrintVersion {
		usage.PrintVersion()
		return nil
	}

	// if it's a -validate-config command, prove the config can serve by
	// compiling its routers and loading its certificates, then exit
	if conf.Flags != nil && conf.Flags.ValidateConfig {
		ports, err := routing.BuildPortRouters(conf)
		if err != nil {
			return err
		}
		for port, p := range ports {
			if !p.TLS {
				continue
			}
			if _, err = ttls.CertsForPort(conf, port); err != nil {
				return err
			}
		}
		fmt.Println("cblt configuration validation succeeded.")
		return nil
	}
	wasStarted = true

	si := &instance.ServerInstance{}

	// serve with config
	if err = setup.ApplyConfig(si, conf, func() { os.Exit(1) }); err != nil {
		return err
	}
	si.Config = conf

	if err = instance.WritePID(conf); err != nil {
		logger.Warn("could not write pidfile",
			logging.Pairs{"path": conf.Main.PidPath, "detail": err.Error()})
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// programmatic shutdowns arrive on the quit channel
		<-conf.Resources.QuitChan
		cancel()
	}()

	signaling.Wait(ctx, func(source string) error {
		return reloadConfig(si, source)
	})

	logger.Info("shutting down", nil)
	setup.Shutdown(conf.Frontend.DrainTimeout())
	instance.RemovePID(conf)
	return nil
}

// reloadConfig re-reads the configuration and, when it has changed, applies
// it to the running listeners. A configuration that fails to load or
// validate leaves the current one in service.
func reloadConfig(si *instance.ServerInstance, source string) error {
	if si.Config != nil {
		si.Config.Main.ReloaderLock.Lock()
		defer si.Config.Main.ReloaderLock.Unlock()
	}
	newConf, err := setup.LoadAndValidate()
	if err != nil {
		metrics.LastReloadSuccessful.Set(0)
		logger.Warn(setup.ConfigNotReloadedText,
			logging.Pairs{"source": source, "detail": err.Error()})
		return err
	}
	if si.Config != nil && si.Config.Equal(newConf) {
		logger.Info("configuration unchanged, not reloading",
			logging.Pairs{"source": source})
		return nil
	}
	if err = setup.ApplyConfig(si, newConf, nil); err != nil {
		logger.Warn(setup.ConfigNotReloadedText,
			logging.Pairs{"source": source, "detail": err.Error()})
		return err
	}
	// keep the quit channel the shutdown monitor is blocked on
	if si.Config != nil && si.Config.Resources != nil {
		newConf.Resources = si.Config.Resources
	}
	si.Config = newConf
	logger.Info(setup.ConfigReloadedText, logging.Pairs{"source": source})
	return nil
}
