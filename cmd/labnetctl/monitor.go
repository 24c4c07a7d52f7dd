// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package main

import (
	"context"
	"net"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/coordinator"
	"github.com/labnet/LabClient/pkg/logging"
	"github.com/labnet/LabClient/pkg/ui"
)

var (
	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Watch and control coordinator state in an interactive monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := coordinator.NewManager(coordinator.ManagerConfig{
				Address: coordinatorAddress(),
			}, coordinator.ManagerDependencies{
				Log: cliLog,
			})
			if err != nil {
				return err
			}
			if monitorSSHFlag != "" {
				return runSSHMonitor(cmd.Context(), manager)
			}
			return runLocalMonitor(cmd.Context(), manager)
		},
	}
	monitorSSHFlag     string
	monitorHostKeyFlag string
	monitorLogFileFlag string
)

// runLocalMonitor runs the monitor on the local terminal.
func runLocalMonitor(ctx context.Context, manager coordinator.Manager) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The monitor owns the terminal; hold log output in a buffer while
	// it runs, teeing to a file when one is configured.
	queue := logging.NewQueueWriter(ctx)
	if monitorLogFileFlag != "" {
		f, err := os.OpenFile(monitorLogFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		queue.SetDestination(f)
		queue.Enable(true)
	}
	logOutput.Append(queue)
	logOutput.Remove(consoleWriter)
	defer func() {
		logOutput.Append(consoleWriter)
		logOutput.Remove(queue)
	}()

	root := ui.New(manager)
	g, gctx := errgroup.WithContext(ctx)
	program := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(gctx))
	g.Go(func() error { return manager.Run(gctx) })
	g.Go(func() error {
		// Stop the manager when the monitor exits
		defer cancel()
		defer root.Release()
		_, err := program.Run()
		return err
	})
	return ignoreCanceled(g.Wait())
}

// runSSHMonitor serves the monitor over SSH.
func runSSHMonitor(ctx context.Context, manager coordinator.Manager) error {
	host, port, err := splitSSHAddress(monitorSSHFlag)
	if err != nil {
		return err
	}
	server, err := ui.NewSSHServer(ui.SSHConfig{
		Host:        host,
		SSHPort:     port,
		HostKeyPath: monitorHostKeyFlag,
	}, cliLog, manager)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return manager.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	return ignoreCanceled(g.Wait())
}

// splitSSHAddress parses a "host:port" pair, the host may be empty.
func splitSSHAddress(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, errors.Wrapf(model.ValidationError, "invalid ssh address '%s'", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, errors.Wrapf(model.ValidationError, "invalid ssh port '%s'", portStr)
	}
	return host, port, nil
}

// ignoreCanceled maps errors of a normal shutdown to nil.
func ignoreCanceled(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func init() {
	monitorCmd.Flags().StringVar(&monitorSSHFlag, "ssh", "", "Serve the monitor on this SSH address (host:port) instead of the local terminal")
	monitorCmd.Flags().StringVar(&monitorHostKeyFlag, "ssh-host-key", "", "Path of the SSH host key pair, created when absent")
	monitorCmd.Flags().StringVar(&monitorLogFileFlag, "log-file", "", "Append logs to this file while the monitor runs")

	rootCmd.AddCommand(monitorCmd)
}
