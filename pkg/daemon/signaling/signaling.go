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

// Package signaling blocks the daemon on OS signals, triggering a config
// reload on SIGHUP and returning on SIGINT/SIGTERM for shutdown
package signaling

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbltserver/cblt/pkg/config/reload"
)

func Wait(ctx context.Context, reloader reload.Reloader) {
	sigs := make(chan os.Signal, 1)
	defer close(sigs)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				reloader("sighup")
			case syscall.SIGINT, syscall.SIGTERM:
				return
			}
		}
	}
}
