// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kcstack/kcstack/cert"
	kcerrors "github.com/kcstack/kcstack/errors"
	"github.com/kcstack/kcstack/runtime"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

// certMountPath is where the server certificate directory is mounted
// inside the keycloak container.
const certMountPath = "/mnt/certificates"

var (
	hostPort    int
	useKeystore bool
	envFile     string
	dataVolume  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&hostPort, "port", "p", types.DefaultHTTPSPort,
		"host port to publish keycloak's https port on")
	runCmd.Flags().BoolVarP(&useKeystore, "keystore", "k", false,
		"configure keycloak with the PKCS12 keystore instead of PEM cert and key")
	runCmd.Flags().StringVarP(&envFile, "env-file", "", "",
		"dotenv file with extra environment variables for the container")
	runCmd.Flags().StringVarP(&dataVolume, "data-volume", "", "keycloak-data",
		"named volume for keycloak data")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a keycloak dev container with TLS enabled",
	RunE:  runKeycloak,
}

func runKeycloak(cobraCmd *cobra.Command, _ []string) error {
	s, paths, c, err := certSetup()
	if err != nil {
		return err
	}

	srv := &s.Certs.Servers[0]

	if err := ensureCertMaterial(s, paths, c, srv); err != nil {
		return err
	}

	ksPassword := s.Certs.KeystorePassword
	if useKeystore {
		if ksPassword == "" {
			return fmt.Errorf("%w: --keystore requires certs.keystore-password in the stack file",
				kcerrors.ErrIncorrectInput)
		}
		if !utils.FileExists(paths.ServerKeystoreAbsFilename(srv.Name)) {
			return fmt.Errorf("%w: keystore %s, run `kcstack cert all` first",
				kcerrors.ErrFileNotFound, paths.ServerKeystoreAbsFilename(srv.Name))
		}
	}

	env, err := runEnv(s, srv, ksPassword, useKeystore, envFile)
	if err != nil {
		return err
	}

	httpsPort, err := nat.NewPort("tcp", strconv.Itoa(types.DefaultHTTPSPort))
	if err != nil {
		return err
	}

	labels := map[string]string{
		types.ToolLabel:     "",
		types.NodeNameLabel: s.Name,
	}
	if s.StackFile() != "" {
		labels[types.StackFileLabel] = s.StackFile()
	}

	cfg := &types.ContainerConfig{
		Name:  s.Name,
		Image: s.ImageRef(),
		Cmd:   "start-dev",
		Env:   env,
		Binds: []string{
			paths.ServersDir() + ":" + certMountPath + ":ro",
			dataVolume + ":/opt/keycloak/data",
		},
		Labels:  labels,
		PortSet: nat.PortSet{httpsPort: struct{}{}},
		PortBindings: nat.PortMap{
			httpsPort: []nat.PortBinding{
				{HostIP: "0.0.0.0", HostPort: strconv.Itoa(hostPort)},
			},
		},
	}

	rt, err := getRuntime()
	if err != nil {
		return err
	}

	ctx := cobraCmd.Context()

	if err := rt.PullImageIfRequired(ctx, cfg.Image, ""); err != nil {
		return err
	}

	id, err := rt.CreateContainer(ctx, cfg)
	if err != nil {
		return err
	}

	if err := rt.StartContainer(ctx, id); err != nil {
		return err
	}

	if status := rt.GetContainerStatus(ctx, id); status != runtime.Running {
		return fmt.Errorf("container %s is %s after start, check `docker logs %s`", s.Name, status, s.Name)
	}

	log.Infof("Keycloak container %s started, admin console: https://localhost:%d/", s.Name, hostPort)
	return nil
}

// runEnv assembles the container environment from the stack file and an
// optional dotenv file. Stack-derived values win over the env file, so a
// stray entry cannot break the TLS or admin wiring.
func runEnv(s *types.StackConfig, srv *types.ServerCert, ksPassword string, keystore bool, envFilePath string) (map[string]string, error) {
	adminPassword := s.Admin.Password
	if adminPassword == "" {
		adminPassword = "admin"
		log.Warn("admin.password is not set in the stack file, using the default dev password \"admin\"")
	}

	env := map[string]string{
		types.EnvAdminUsername: s.Admin.Username,
		types.EnvAdminPassword: adminPassword,
		types.EnvHTTPEnabled:   "false",
		types.EnvHTTPSPort:     strconv.Itoa(types.DefaultHTTPSPort),
	}

	if keystore {
		env[types.EnvHTTPSKeystoreFile] = certMountPath + "/" + srv.Name + types.KeystoreFileSuffix
		env[types.EnvHTTPSKeystorePass] = ksPassword
	} else {
		env[types.EnvHTTPSCertFile] = certMountPath + "/" + srv.Name + types.ChainFileSuffix
		env[types.EnvHTTPSCertKeyFile] = certMountPath + "/" + srv.Name + types.KeyFileSuffix
	}

	if envFilePath != "" {
		extra, err := utils.LoadEnvFile(envFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFilePath, err)
		}
		env = utils.MergeStringMaps(env, extra)
	}

	return env, nil
}

// ensureCertMaterial bootstraps the CA and the server certificate when
// they do not exist yet, so that `kcstack run` works on a fresh checkout.
func ensureCertMaterial(s *types.StackConfig, paths *types.CertPaths, c *cert.Cert, srv *types.ServerCert) error {
	if utils.FileExists(paths.ServerCertAbsFilename(srv.Name)) &&
		utils.FileExists(paths.ServerKeyAbsFilename(srv.Name)) {
		return nil
	}

	log.Infof("No certificate material for %q found, bootstrapping it", srv.Name)

	caExpiry, err := time.ParseDuration(s.Certs.CAExpiry)
	if err != nil {
		return fmt.Errorf("failed to parse certs.ca-expiry %q: %w", s.Certs.CAExpiry, err)
	}
	srvExpiry, err := time.ParseDuration(s.Certs.Expiry)
	if err != nil {
		return fmt.Errorf("failed to parse certs.expiry %q: %w", s.Certs.Expiry, err)
	}

	_, err = cert.BootstrapCA(c.CA, c.CertStorage, paths, &cert.CACSRInput{
		CommonName:       "kcstack.dev",
		Country:          "Internet",
		Locality:         "Server",
		Organization:     "kcstack",
		OrganizationUnit: "kcstack CA",
		Expiry:           caExpiry,
		KeySize:          s.Certs.KeySize,
	}, false)
	if err != nil && !errors.Is(err, kcerrors.ErrCAExists) {
		return err
	}

	srvIn := &cert.ServerCSRInput{
		Name:         srv.Name,
		Hosts:        srv.Hosts,
		Country:      "Internet",
		Locality:     "Server",
		Organization: "kcstack",
		Expiry:       srvExpiry,
		KeySize:      s.Certs.KeySize,
	}

	if _, err := cert.IssueServerCert(c.CA, c.CertStorage, paths, srvIn, s.Certs.KeystorePassword); err != nil {
		return err
	}

	return cert.FixPermissions(paths)
}
