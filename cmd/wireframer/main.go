/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wireframer/internal/crash"
	"wireframer/internal/workspace"
)

// workspaceRef lets the crash handler see the workspace opened by a command.
type workspaceRef struct{ ws *workspace.Workspace }

func (r *workspaceRef) Dir() string {
	if r.ws == nil {
		return ""
	}
	return r.ws.Dir()
}

func (r *workspaceRef) Autosave() (string, error) {
	if r.ws == nil {
		return "", errors.New("no workspace open")
	}
	return r.ws.Autosave()
}

func main() {
	ref := &workspaceRef{}
	defer crash.Recover(ref)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(ref, os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	cancel()
	if ref.ws != nil {
		_ = ref.ws.Close()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
