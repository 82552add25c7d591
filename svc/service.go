// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

// Package svc installs and manages keycloak as a bare-metal systemd
// service: it renders keycloak.conf and the unit file, grants the
// capability needed to bind port 443 and drives systemctl.
package svc

import (
	"context"
	"fmt"
	"os/user"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	kcerrors "github.com/kcstack/kcstack/errors"
	kcexec "github.com/kcstack/kcstack/exec"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

const (
	unitName = "keycloak.service"

	defaultUnitDir = "/etc/systemd/system"
)

// installHints maps required binaries to the hint printed when they are
// missing from the search path.
var installHints = map[string]string{
	"systemctl": "systemd is required for a bare-metal install",
	"setcap":    "install the libcap2-bin (deb) or libcap (rpm) package",
}

// Service manages a bare-metal keycloak installation.
type Service struct {
	Distribution string
	User         string
	HTTPSPort    int
	Hostname     string
	CertFile     string
	KeyFile      string
	UnitDir      string
}

// NewService builds a Service from the stack config and the certificate
// layout of the named server.
func NewService(s *types.StackConfig, paths *types.CertPaths, serverName string) *Service {
	return &Service{
		Distribution: s.Service.Distribution,
		User:         s.Service.User,
		HTTPSPort:    s.Service.HTTPSPort,
		Hostname:     s.Service.Hostname,
		CertFile:     paths.ServerChainAbsFilename(serverName),
		KeyFile:      paths.ServerKeyAbsFilename(serverName),
		UnitDir:      defaultUnitDir,
	}
}

// CheckDependencies verifies every binary the install needs is on the
// search path and returns a hint for the first one missing.
func (s *Service) CheckDependencies() error {
	for binary, hint := range installHints {
		if !kcexec.LookPath(binary) {
			return fmt.Errorf("%w: %s not found, %s", kcerrors.ErrMissingDependency, binary, hint)
		}
	}
	return nil
}

// ConfPath returns the path of the managed keycloak.conf.
func (s *Service) ConfPath() string {
	return filepath.Join(s.Distribution, "conf", "keycloak.conf")
}

// UnitPath returns the path of the managed systemd unit.
func (s *Service) UnitPath() string {
	return filepath.Join(s.UnitDir, unitName)
}

// Install renders keycloak.conf and the systemd unit, grants
// CAP_NET_BIND_SERVICE when the https port is privileged and enables the
// unit.
func (s *Service) Install(ctx context.Context) error {
	if err := s.CheckDependencies(); err != nil {
		return err
	}

	if err := unix.Access(s.UnitDir, unix.W_OK); err != nil {
		return fmt.Errorf("cannot write to %s, run the install as root: %w", s.UnitDir, err)
	}

	if !utils.FileExists(filepath.Join(s.Distribution, "bin", "kc.sh")) {
		return fmt.Errorf("no keycloak distribution found at %s", s.Distribution)
	}

	if _, err := user.Lookup(s.User); err != nil {
		return fmt.Errorf("service user %q does not exist, create it first: %w", s.User, err)
	}

	conf := &types.KeycloakConf{
		HTTPEnabled:       false,
		HTTPSPort:         s.HTTPSPort,
		HTTPSCertFile:     s.CertFile,
		HTTPSCertKeyFile:  s.KeyFile,
		Hostname:          s.Hostname,
		HostnameStrict:    true,
		HostnameStrictTLS: true,
	}

	log.Infof("Writing %s", s.ConfPath())
	if err := utils.CreateFile(s.ConfPath(), string(conf.Render())); err != nil {
		return err
	}

	unit, err := renderUnit(unitInput{User: s.User, Distribution: s.Distribution})
	if err != nil {
		return err
	}

	log.Infof("Writing %s", s.UnitPath())
	if err := utils.CreateFile(s.UnitPath(), string(unit)); err != nil {
		return err
	}

	if s.HTTPSPort < 1024 {
		if err := s.grantBindCapability(ctx); err != nil {
			return err
		}
	}

	if err := s.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	if err := s.systemctl(ctx, "enable", unitName); err != nil {
		return err
	}

	log.Infof("Installed %s, start it with `kcstack service start`", unitName)
	return nil
}

// Start starts the keycloak unit.
func (s *Service) Start(ctx context.Context) error {
	return s.systemctl(ctx, "start", unitName)
}

// Stop stops the keycloak unit.
func (s *Service) Stop(ctx context.Context) error {
	return s.systemctl(ctx, "stop", unitName)
}

// Status reports the unit's active and enablement state.
func (s *Service) Status(ctx context.Context) (string, error) {
	res, err := kcexec.RunHostCmd(ctx, kcexec.NewExecCmdFromSlice(
		[]string{"systemctl", "show", "-p", "ActiveState,UnitFileState", unitName}))
	if err != nil {
		return "", err
	}
	if res.ReturnCode != 0 {
		return "", fmt.Errorf("systemctl show failed: %s", res.Stderr)
	}

	// output comes as KEY=VALUE lines
	var active, enabled string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		switch {
		case strings.HasPrefix(line, "ActiveState="):
			active = strings.TrimPrefix(line, "ActiveState=")
		case strings.HasPrefix(line, "UnitFileState="):
			enabled = strings.TrimPrefix(line, "UnitFileState=")
		}
	}
	if enabled == "" {
		enabled = "not-installed"
	}

	return fmt.Sprintf("%s (%s)", active, enabled), nil
}

// grantBindCapability sets CAP_NET_BIND_SERVICE on the JVM binary so
// keycloak can bind a privileged port without running as root.
func (s *Service) grantBindCapability(ctx context.Context) error {
	java, err := s.javaBinary()
	if err != nil {
		return err
	}

	log.Infof("Granting CAP_NET_BIND_SERVICE to %s for port %d", java, s.HTTPSPort)

	res, err := kcexec.RunHostCmd(ctx, kcexec.NewExecCmdFromSlice(
		[]string{"setcap", "cap_net_bind_service=+ep", java}))
	if err != nil {
		return err
	}
	if res.ReturnCode != 0 {
		return pkgerrors.Errorf("setcap failed (are you root?): %s", res.Stderr)
	}
	return nil
}

// javaBinary resolves the JVM binary the distribution runs with. A JVM
// bundled with the distribution wins over the system one.
func (s *Service) javaBinary() (string, error) {
	bundled := filepath.Join(s.Distribution, "jre", "bin", "java")
	if utils.FileExists(bundled) {
		return filepath.EvalSymlinks(bundled)
	}

	res, err := kcexec.RunHostCmd(context.Background(), kcexec.NewExecCmdFromSlice([]string{"which", "java"}))
	if err != nil || res.ReturnCode != 0 {
		return "", fmt.Errorf("%w: java not found, install a JRE", kcerrors.ErrMissingDependency)
	}

	return filepath.EvalSymlinks(strings.TrimSpace(string(res.Stdout)))
}

func (s *Service) systemctl(ctx context.Context, args ...string) error {
	cmd := append([]string{"systemctl"}, args...)

	res, err := kcexec.RunHostCmd(ctx, kcexec.NewExecCmdFromSlice(cmd))
	if err != nil {
		return err
	}
	if res.ReturnCode != 0 {
		return pkgerrors.Errorf("systemctl %s failed: %s", strings.Join(args, " "), res.Stderr)
	}

	log.Debugf("systemctl %s succeeded", strings.Join(args, " "))
	return nil
}
