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

package instance

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cbltserver/cblt/pkg/config"
)

func TestWriteAndRemovePID(t *testing.T) {
	c := config.NewConfig()
	c.Main.PidPath = filepath.Join(t.TempDir(), "run", "cblt.pid")
	if err := WritePID(c); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(c.Main.PidPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != strconv.Itoa(os.Getpid()) {
		t.Errorf("unexpected pidfile contents %q", string(b))
	}
	if err = RemovePID(c); err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(c.Main.PidPath); !os.IsNotExist(err) {
		t.Error("expected pidfile to be removed")
	}
	// removing an already-removed pidfile is not an error
	if err = RemovePID(c); err != nil {
		t.Fatal(err)
	}
}

func TestPIDPathInstanceID(t *testing.T) {
	c := config.NewConfig()
	c.Main.PidPath = filepath.Join(t.TempDir(), "cblt.pid")
	c.Main.InstanceID = 2
	if err := WritePID(c); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(c.Main.PidPath + ".2"); err != nil {
		t.Errorf("expected instance-suffixed pidfile: %v", err)
	}
	if err := RemovePID(c); err != nil {
		t.Fatal(err)
	}
}

func TestPIDDisabled(t *testing.T) {
	c := config.NewConfig()
	c.Main.PidPath = ""
	if err := WritePID(c); err != nil {
		t.Fatal(err)
	}
	if err := RemovePID(c); err != nil {
		t.Fatal(err)
	}
}
