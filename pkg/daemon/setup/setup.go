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

// Package setup loads, validates and applies the running configuration,
// turning a parsed site list into live listeners and routers
package setup

import (
	"fmt"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/cbltserver/cblt/pkg/appinfo"
	"github.com/cbltserver/cblt/pkg/appinfo/usage"
	"github.com/cbltserver/cblt/pkg/config"
	"github.com/cbltserver/cblt/pkg/daemon/instance"
	te "github.com/cbltserver/cblt/pkg/errors"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/level"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	"github.com/cbltserver/cblt/pkg/routing"
)

const ConfigNotReloadedText = "configuration NOT reloaded"
const ConfigReloadedText = "configuration reloaded"

var mtx sync.Mutex

// LoadAndValidate loads the configuration from the command line, environment
// and config file, returning it fully validated
func LoadAndValidate() (*config.Config, error) {
	mtx.Lock()
	defer mtx.Unlock()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Println("\nERROR: Could not load configuration:", err.Error())
		if cfg != nil && cfg.Flags != nil && cfg.Flags.ValidateConfig {
			usage.PrintUsage()
		}
		return nil, err
	}
	if cfg == nil {
		return nil, te.ErrInvalidOptions
	}
	return cfg, nil
}

// ApplyConfig builds the route tables for newConf and applies them to the
// listener group, starting, updating and draining listeners as needed.
// si.Config (the previously-applied config) guides what can be updated in
// place; the caller updates si.Config after a successful apply. When
// errorFunc is non-nil a failure to apply is fatal to the process.
func ApplyConfig(si *instance.ServerInstance, newConf *config.Config,
	errorFunc func()) error {

	if newConf == nil {
		return nil
	}

	if newConf.Main.ServerName == "" {
		newConf.Main.ServerName, _ = os.Hostname()
	}
	appinfo.SetServer(newConf.Main.ServerName)

	applyLoggingConfig(newConf, si.Config)

	for _, w := range newConf.LoaderWarnings {
		logger.Warn(w, nil)
	}

	// every config (re)load compiles a fresh set of per-port routers
	ports, err := routing.BuildPortRouters(newConf)
	if err != nil {
		handleStartupIssue("route registration failed",
			logging.Pairs{"detail": err.Error()}, errorFunc)
		return err
	}

	// a startup issue recorded during the apply leaves the gauge at 0
	if applyListenerConfigs(newConf, si.Config, ports, errorFunc) {
		metrics.LastReloadSuccessfulTimestamp.Set(float64(time.Now().Unix()))
		metrics.LastReloadSuccessful.Set(1)
	}
	return nil
}

func applyLoggingConfig(c, o *config.Config) {

	oldLogger := logger.Logger()

	if c == nil || c.Logging == nil {
		return
	}

	if o != nil && o.Logging != nil {
		if c.Logging.LogFile == o.Logging.LogFile &&
			c.Logging.LogLevel == o.Logging.LogLevel {
			// no changes in logging config,
			// so we keep the old logger intact
			return
		}
		if c.Logging.LogFile != o.Logging.LogFile {
			if o.Logging.LogFile != "" {
				// if we're changing from file1 -> console or file1 -> file2, close file1 handle
				// the extra 1s allows HTTP listeners to close first and finish their log writes
				go delayedLogCloser(oldLogger,
					c.Frontend.DrainTimeout()+time.Second)
			}
			initLogger(c)
			return
		}
		if c.Logging.LogLevel != o.Logging.LogLevel {
			// the only change is the log level, so update it in place
			oldLogger.SetLogLevel(level.Level(c.Logging.LogLevel))
			return
		}
	}
	initLogger(c)
}

func initLogger(c *config.Config) logging.Logger {
	logger.SetLogger(logging.New(c.Logging))
	logger.Info("application loaded from configuration",
		logging.Pairs{
			"name":      appinfo.Name,
			"version":   appinfo.Version,
			"goVersion": goruntime.Version(),
			"goArch":    goruntime.GOARCH,
			"goOS":      goruntime.GOOS,
			"commitID":  appinfo.GitCommitID,
			"buildTime": appinfo.BuildTime,
			"logLevel":  c.Logging.LogLevel,
			"config":    c.ConfigFilePath(),
			"pid":       os.Getpid(),
		},
	)
	return logger.Logger()
}

func delayedLogCloser(logger logging.Logger, delay time.Duration) {
	// we can't immediately close the logger, because some outstanding
	// http requests might still be on the old reference, so this will
	// allow time for those connections to drain
	if logger == nil {
		return
	}
	time.Sleep(delay)
	logger.Close()
}

func handleStartupIssue(event string, detail logging.Pairs, errorFunc func()) {
	metrics.LastReloadSuccessful.Set(0)
	if event != "" {
		if errorFunc != nil {
			logger.Error(event, detail)
			errorFunc()
			return
		}
		logger.Warn(event, detail)
		return
	}
	if errorFunc != nil {
		errorFunc()
	}
}
