// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	kcerrors "github.com/kcstack/kcstack/errors"
	"github.com/kcstack/kcstack/kube"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

var (
	kubeHTTPS        bool
	kubePostgres     bool
	postgresPassword string
	chartPath        string
	helmSet          []string
)

func init() {
	rootCmd.AddCommand(kubeCmd)
	kubeCmd.AddCommand(kubeSecretCmd)
	kubeCmd.AddCommand(kubeDeployCmd)
	kubeCmd.AddCommand(kubeDeleteCmd)
	kubeCmd.AddCommand(kubeInstallCmd)
	kubeCmd.AddCommand(kubeUninstallCmd)

	kubeDeployCmd.Flags().BoolVarP(&kubeHTTPS, "https", "", true,
		"deploy the TLS variant of the manifests")
	kubeDeployCmd.Flags().BoolVarP(&kubePostgres, "postgres", "", false,
		"also deploy a postgres backing store")
	kubeDeployCmd.Flags().StringVarP(&postgresPassword, "postgres-password", "", "",
		"password for the postgres backing store; generated when omitted")

	kubeInstallCmd.Flags().StringVarP(&chartPath, "chart", "", "chart/keycloak",
		"path to the keycloak helm chart")
	kubeInstallCmd.Flags().StringSliceVarP(&helmSet, "set", "", nil,
		"set chart values on the command line, e.g. keycloak.replicas=2")
}

var kubeCmd = &cobra.Command{
	Use:   "kube",
	Short: "deploy keycloak to a kubernetes cluster",
}

var kubeSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "create or update the TLS secret from the server certificate",
	RunE:  kubeApplySecret,
}

var kubeDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "apply the keycloak dev-mode manifests",
	RunE:  kubeDeploy,
}

var kubeDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "remove the keycloak manifests and the TLS secret",
	RunE:  kubeDelete,
}

var kubeInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "install or upgrade the keycloak helm chart",
	RunE:  kubeInstall,
}

var kubeUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "uninstall the keycloak helm release",
	RunE:  kubeUninstall,
}

func kubeClient(s *types.StackConfig) (*kube.Client, error) {
	return kube.NewClient(s.Kube.Kubeconfig, s.Kube.Namespace)
}

// applyTLSSecret loads the first server's certificate chain and key and
// pushes them into the stack's TLS secret.
func applyTLSSecret(cobraCmd *cobra.Command, s *types.StackConfig, client *kube.Client) error {
	paths, err := certPathsFromStack(s)
	if err != nil {
		return err
	}

	srv := &s.Certs.Servers[0]

	chainFile := paths.ServerChainAbsFilename(srv.Name)
	keyFile := paths.ServerKeyAbsFilename(srv.Name)
	if !utils.FileExists(chainFile) || !utils.FileExists(keyFile) {
		return fmt.Errorf("%w: certificate material for %q, run `kcstack cert all` first",
			kcerrors.ErrFileNotFound, srv.Name)
	}

	chainPEM, err := os.ReadFile(chainFile)
	if err != nil {
		return err
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return err
	}

	if err := client.EnsureNamespace(cobraCmd.Context()); err != nil {
		return err
	}

	return client.ApplyTLSSecret(cobraCmd.Context(), s.Kube.TLSSecret, chainPEM, keyPEM)
}

func kubeApplySecret(cobraCmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	client, err := kubeClient(s)
	if err != nil {
		return err
	}

	return applyTLSSecret(cobraCmd, s, client)
}

func kubeDeploy(cobraCmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	client, err := kubeClient(s)
	if err != nil {
		return err
	}

	if kubeHTTPS {
		if err := applyTLSSecret(cobraCmd, s, client); err != nil {
			return err
		}
	}

	adminPassword := s.Admin.Password
	if adminPassword == "" {
		adminPassword = "admin"
		log.Warn("admin.password is not set in the stack file, using the default dev password \"admin\"")
	}

	pgPassword := postgresPassword
	if kubePostgres && pgPassword == "" {
		pgPassword, err = generatePassword()
		if err != nil {
			return err
		}
		log.Infof("Generated a postgres password, it is kept in the %q secret", kube.PostgresSecretName)
	}

	err = client.Deploy(cobraCmd.Context(), kube.DeployOptions{
		Image:            s.ImageRef(),
		AdminUser:        s.Admin.Username,
		AdminPassword:    adminPassword,
		HTTPS:            kubeHTTPS,
		TLSSecret:        s.Kube.TLSSecret,
		Postgres:         kubePostgres,
		PostgresPassword: pgPassword,
	})
	if err != nil {
		return err
	}

	log.Infof("Keycloak deployed to namespace %q", s.Kube.Namespace)
	return nil
}

func generatePassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func kubeDelete(cobraCmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	client, err := kubeClient(s)
	if err != nil {
		return err
	}

	if err := client.Undeploy(cobraCmd.Context()); err != nil {
		return err
	}

	return client.DeleteSecret(cobraCmd.Context(), s.Kube.TLSSecret)
}

func kubeInstall(cobraCmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	client, err := kubeClient(s)
	if err != nil {
		return err
	}

	if err := applyTLSSecret(cobraCmd, s, client); err != nil {
		return err
	}

	// stack-derived values come first so that --set can override them
	set := []string{
		fmt.Sprintf("image.repository=%s", s.Keycloak.Image),
		fmt.Sprintf("image.tag=%s", s.Keycloak.Version),
		fmt.Sprintf("tls.secretName=%s", s.Kube.TLSSecret),
	}
	set = append(set, s.Kube.Set...)
	set = append(set, helmSet...)

	return client.InstallChart(kube.HelmOptions{
		ChartPath:   chartPath,
		ReleaseName: s.Kube.Release,
		Timeout:     timeout,
		SetOptions:  set,
	})
}

func kubeUninstall(_ *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}

	client, err := kubeClient(s)
	if err != nil {
		return err
	}

	return client.UninstallChart(s.Kube.Release)
}
