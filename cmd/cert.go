// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kcstack/kcstack/cert"
	kcerrors "github.com/kcstack/kcstack/errors"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

// ca create and sign bind separate variables for the subject flags.
// pflag assigns the default at registration time, so sharing one
// variable between commands with different defaults would leave it
// holding whichever default was registered last.
var (
	caCommonName       string
	caCountry          string
	caLocality         string
	caOrganization     string
	caOrganizationUnit string

	commonName       string
	country          string
	locality         string
	organization     string
	organizationUnit string
	expiry           string
	forceCA          bool
	serverName       string
	certHosts        []string
	keystorePassword string
)

func init() {
	rootCmd.AddCommand(certCmd)
	certCmd.AddCommand(caCmd)
	caCmd.AddCommand(caCreateCmd)
	certCmd.AddCommand(signCertCmd)
	certCmd.AddCommand(certAllCmd)
	certCmd.AddCommand(verifyCertCmd)
	certCmd.AddCommand(fixPermissionsCmd)

	caCreateCmd.Flags().StringVarP(&caCommonName, "cn", "", "kcstack.dev", "Common Name")
	caCreateCmd.Flags().StringVarP(&caCountry, "c", "", "Internet", "Country")
	caCreateCmd.Flags().StringVarP(&caLocality, "l", "", "Server", "Location")
	caCreateCmd.Flags().StringVarP(&caOrganization, "o", "", "kcstack", "Organization")
	caCreateCmd.Flags().StringVarP(&caOrganizationUnit, "ou", "", "kcstack CA", "Organization Unit")
	caCreateCmd.Flags().StringVarP(&expiry, "expiry", "e", "", "certificate validity period, e.g. 87600h")
	caCreateCmd.Flags().BoolVarP(&forceCA, "force", "f", false,
		"overwrite an existing CA; invalidates previously signed server certificates")

	signCertCmd.Flags().StringVarP(&serverName, "server", "", "", "server name from the stack file")
	signCertCmd.Flags().StringSliceVarP(&certHosts, "hosts", "", nil,
		"comma separated list of certificate SANs; overrides the stack file hosts")
	signCertCmd.Flags().StringVarP(&commonName, "cn", "", "", "Common Name, defaults to the first host")
	signCertCmd.Flags().StringVarP(&country, "c", "", "Internet", "Country")
	signCertCmd.Flags().StringVarP(&locality, "l", "", "Server", "Location")
	signCertCmd.Flags().StringVarP(&organization, "o", "", "kcstack", "Organization")
	signCertCmd.Flags().StringVarP(&organizationUnit, "ou", "", "kcstack", "Organization Unit")
	signCertCmd.Flags().StringVarP(&expiry, "expiry", "e", "", "certificate validity period, e.g. 8760h")
	signCertCmd.Flags().StringVarP(&keystorePassword, "keystore-password", "", "",
		"password for the PKCS12 keystore; prompted for when omitted on a terminal")

	certAllCmd.Flags().BoolVarP(&forceCA, "force", "f", false, "recreate the CA even if it exists")
	certAllCmd.Flags().StringVarP(&keystorePassword, "keystore-password", "", "",
		"password for the PKCS12 keystores")

	verifyCertCmd.Flags().StringVarP(&serverName, "server", "", "", "verify a single server certificate")
}

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "TLS certificate operations",
}

var caCmd = &cobra.Command{
	Use:   "ca",
	Short: "certificate authority operations",
}

var caCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create the root CA certificate and key",
	RunE:  createCA,
}

var signCertCmd = &cobra.Command{
	Use:   "sign",
	Short: "create and sign a server certificate, chain and keystore",
	RunE:  signCert,
}

var certAllCmd = &cobra.Command{
	Use:   "all",
	Short: "create the CA if needed and sign every server certificate of the stack",
	RunE:  certAll,
}

var verifyCertCmd = &cobra.Command{
	Use:   "verify",
	Short: "verify server certificates against the CA",
	RunE:  verifyCerts,
}

var fixPermissionsCmd = &cobra.Command{
	Use:   "fix-permissions",
	Short: "normalize certificate file permissions for rootless containers",
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := loadStack()
		if err != nil {
			return err
		}
		paths, err := certPathsFromStack(s)
		if err != nil {
			return err
		}
		return cert.FixPermissions(paths)
	},
}

// certSetup bundles the pieces every cert operation needs.
func certSetup() (*types.StackConfig, *types.CertPaths, *cert.Cert, error) {
	s, err := loadStack()
	if err != nil {
		return nil, nil, nil, err
	}

	paths, err := certPathsFromStack(s)
	if err != nil {
		return nil, nil, nil, err
	}

	c := &cert.Cert{
		CA:          cert.NewCA(),
		CertStorage: cert.NewLocalDirCertStorage(paths),
	}

	return s, paths, c, nil
}

func caInput(s *types.StackConfig) (*cert.CACSRInput, error) {
	expiryStr := expiry
	if expiryStr == "" {
		expiryStr = s.Certs.CAExpiry
	}
	expiryDuration, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expiry %q: %w", expiryStr, err)
	}

	return &cert.CACSRInput{
		CommonName:       caCommonName,
		Country:          caCountry,
		Locality:         caLocality,
		Organization:     caOrganization,
		OrganizationUnit: caOrganizationUnit,
		Expiry:           expiryDuration,
		KeySize:          s.Certs.KeySize,
	}, nil
}

func serverInput(s *types.StackConfig, srv *types.ServerCert) (*cert.ServerCSRInput, error) {
	expiryStr := expiry
	if expiryStr == "" {
		expiryStr = s.Certs.Expiry
	}
	expiryDuration, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expiry %q: %w", expiryStr, err)
	}

	hosts := srv.Hosts
	if len(certHosts) > 0 {
		hosts = certHosts
	}

	return &cert.ServerCSRInput{
		Name:             srv.Name,
		Hosts:            hosts,
		CommonName:       commonName,
		Country:          country,
		Locality:         locality,
		Organization:     organization,
		OrganizationUnit: organizationUnit,
		Expiry:           expiryDuration,
		KeySize:          s.Certs.KeySize,
	}, nil
}

// resolveKeystorePassword returns the keystore password from the flag, the
// stack file or an interactive prompt, in that order. An empty result
// skips keystore creation.
func resolveKeystorePassword(s *types.StackConfig) (string, error) {
	if keystorePassword != "" {
		return keystorePassword, nil
	}
	if s.Certs.KeystorePassword != "" {
		return s.Certs.KeystorePassword, nil
	}
	if utils.IsTerminal() {
		return utils.ReadPassword("PKCS12 keystore password (empty to skip keystore creation): ")
	}
	return "", nil
}

func createCA(_ *cobra.Command, _ []string) error {
	s, paths, c, err := certSetup()
	if err != nil {
		return err
	}

	input, err := caInput(s)
	if err != nil {
		return err
	}

	log.Infof("Certificate attributes: CN=%s, C=%s, L=%s, O=%s, OU=%s, Validity period=%s",
		input.CommonName, input.Country, input.Locality, input.Organization, input.OrganizationUnit, input.Expiry)

	_, err = cert.BootstrapCA(c.CA, c.CertStorage, paths, input, forceCA)
	if err != nil {
		return err
	}

	log.Infof("Created CA certificate at %s", paths.CACertAbsFilename())
	return nil
}

func signCert(_ *cobra.Command, _ []string) error {
	s, paths, c, err := certSetup()
	if err != nil {
		return err
	}

	if serverName == "" {
		return fmt.Errorf("%w: --server is required", kcerrors.ErrIncorrectInput)
	}

	srv, err := s.Server(serverName)
	if err != nil {
		// allow signing for servers not present in the stack file
		// as long as hosts are given explicitly
		if len(certHosts) == 0 {
			return err
		}
		srv = &types.ServerCert{Name: serverName, Hosts: certHosts}
	}

	if err := cert.LoadCA(c.CA, c.CertStorage, paths); err != nil {
		return err
	}

	input, err := serverInput(s, srv)
	if err != nil {
		return err
	}

	ksPassword, err := resolveKeystorePassword(s)
	if err != nil {
		return err
	}

	_, err = cert.IssueServerCert(c.CA, c.CertStorage, paths, input, ksPassword)
	return err
}

func certAll(_ *cobra.Command, _ []string) error {
	s, paths, c, err := certSetup()
	if err != nil {
		return err
	}

	input, err := caInput(s)
	if err != nil {
		return err
	}

	_, err = cert.BootstrapCA(c.CA, c.CertStorage, paths, input, forceCA)
	if err != nil && !errors.Is(err, kcerrors.ErrCAExists) {
		return err
	}
	if errors.Is(err, kcerrors.ErrCAExists) {
		log.Infof("Reusing existing CA at %s", paths.CACertAbsFilename())
	}

	ksPassword, err := resolveKeystorePassword(s)
	if err != nil {
		return err
	}

	for i := range s.Certs.Servers {
		srv := &s.Certs.Servers[i]

		input, err := serverInput(s, srv)
		if err != nil {
			return err
		}

		if _, err := cert.IssueServerCert(c.CA, c.CertStorage, paths, input, ksPassword); err != nil {
			return err
		}
	}

	return cert.FixPermissions(paths)
}

func verifyCerts(_ *cobra.Command, _ []string) error {
	s, paths, c, err := certSetup()
	if err != nil {
		return err
	}

	caCert, err := c.LoadCACert()
	if err != nil {
		return fmt.Errorf("failed to load CA certificate: %w", err)
	}

	servers := s.Certs.Servers
	if serverName != "" {
		srv, err := s.Server(serverName)
		if err != nil {
			return err
		}
		servers = []types.ServerCert{*srv}
	}

	var failed int
	for _, srv := range servers {
		srvCert, err := c.LoadServerCert(srv.Name)
		if err != nil {
			log.Errorf("%s: %v", srv.Name, err)
			failed++
			continue
		}
		if err := srvCert.VerifyAgainst(caCert.Cert); err != nil {
			log.Errorf("%s: %v", srv.Name, err)
			failed++
			continue
		}
		log.Infof("%s: certificate at %s verifies against the CA",
			srv.Name, paths.ServerCertAbsFilename(srv.Name))
	}

	if failed > 0 {
		return fmt.Errorf("%d certificate(s) failed verification", failed)
	}
	return nil
}
