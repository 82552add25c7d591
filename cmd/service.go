// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcstack/kcstack/svc"
	"github.com/kcstack/kcstack/types"
)

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceStartCmd)
	serviceCmd.AddCommand(serviceStopCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "manage keycloak as a bare-metal systemd service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "render keycloak.conf and the systemd unit, then enable the unit",
	RunE: func(cobraCmd *cobra.Command, _ []string) error {
		s, err := loadService()
		if err != nil {
			return err
		}
		return s.Install(cobraCmd.Context())
	},
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "start the keycloak unit",
	RunE: func(cobraCmd *cobra.Command, _ []string) error {
		s, err := loadService()
		if err != nil {
			return err
		}
		return s.Start(cobraCmd.Context())
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "stop the keycloak unit",
	RunE: func(cobraCmd *cobra.Command, _ []string) error {
		s, err := loadService()
		if err != nil {
			return err
		}
		return s.Stop(cobraCmd.Context())
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the keycloak unit state",
	RunE: func(cobraCmd *cobra.Command, _ []string) error {
		s, err := loadService()
		if err != nil {
			return err
		}
		status, err := s.Status(cobraCmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	},
}

// loadService builds the bare-metal service from the stack config and
// the first server's certificate layout.
func loadService() (*svc.Service, error) {
	s, err := loadStack()
	if err != nil {
		return nil, err
	}

	paths, err := certPathsFromStack(s)
	if err != nil {
		return nil, err
	}

	var srv *types.ServerCert
	if s.Service.Hostname != "" {
		// prefer a server cert entry matching the configured hostname
		for i := range s.Certs.Servers {
			for _, h := range s.Certs.Servers[i].Hosts {
				if h == s.Service.Hostname {
					srv = &s.Certs.Servers[i]
					break
				}
			}
			if srv != nil {
				break
			}
		}
	}
	if srv == nil {
		srv = &s.Certs.Servers[0]
	}

	return svc.NewService(s, paths, srv.Name), nil
}
