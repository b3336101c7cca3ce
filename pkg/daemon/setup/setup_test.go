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
	"bytes"
	"strings"
	"testing"

	"github.com/cbltserver/cblt/pkg/config"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/level"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	"github.com/cbltserver/cblt/pkg/routing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// captureLogs routes the global logger to a buffer for the duration of
// the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	l := logging.StreamLogger(buf, level.Warn)
	l.SetLogAsynchronous(false)
	old := logger.Logger()
	logger.SetLogger(l)
	t.Cleanup(func() { logger.SetLogger(old) })
	return buf
}

func TestApplyListenerConfigsCertFailure(t *testing.T) {
	buf := captureLogs(t)

	sites, err := config.ParseSites("Cbltfile", `
secure.example.com {
    serve / `+t.TempDir()+`
    tls /nonexistent/cert.pem /nonexistent/key.pem
}
`)
	if err != nil {
		t.Fatal(err)
	}
	conf := config.NewConfig()
	conf.Sites = sites
	conf.Main.DisableHTTPRedirect = true
	conf.Metrics.ListenPort = 0
	if err = conf.Validate(); err != nil {
		t.Fatal(err)
	}
	ports, err := routing.BuildPortRouters(conf)
	if err != nil {
		t.Fatal(err)
	}

	metrics.LastReloadSuccessful.Set(1)
	if applyListenerConfigs(conf, nil, ports, nil) {
		t.Error("expected the apply to report failure for unloadable certificates")
	}
	if v := testutil.ToFloat64(metrics.LastReloadSuccessful); v != 0 {
		t.Errorf("expected the reload gauge to be 0 after a failed apply, got %v", v)
	}
	if !strings.Contains(buf.String(), "certificate") {
		t.Errorf("expected a certificate warning to be logged, got %q", buf.String())
	}
}

func TestApplyListenerConfigsEmpty(t *testing.T) {
	captureLogs(t)
	conf := config.NewConfig()
	conf.Metrics.ListenPort = 0
	if !applyListenerConfigs(conf, nil, routing.PortRouters{}, nil) {
		t.Error("expected an empty port set to apply cleanly")
	}
}
