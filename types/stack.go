// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package types

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/a8m/envsubst"
	yaml "gopkg.in/yaml.v2"
)

const (
	defaultImageRepo   = "quay.io/keycloak/keycloak"
	defaultCertDir     = "certs"
	defaultKeySize     = 2048
	defaultCertExpiry  = "8760h" // 1 year
	defaultCAExpiry    = "87600h"
	defaultNamespace   = "keycloak"
	defaultTLSSecret   = "keycloak-tls"
	defaultReleaseName = "keycloak"
	defaultDistPath    = "/opt/keycloak"
	defaultServiceUser = "keycloak"
)

// ImageFlavor selects which Dockerfile a stack is built with.
type ImageFlavor string

const (
	// FlavorDebian builds keycloak from a debian base image.
	FlavorDebian ImageFlavor = "debian"
	// FlavorOfficial repackages the official keycloak image.
	FlavorOfficial ImageFlavor = "official"
)

// StackConfig is the schema of the kcstack.yml stack file. It describes a
// keycloak deployment across the container, kubernetes and bare-metal
// targets kcstack knows about.
type StackConfig struct {
	Name     string       `yaml:"name"`
	Keycloak KeycloakSpec `yaml:"keycloak"`
	Admin    AdminSpec    `yaml:"admin,omitempty"`
	Certs    CertsSpec    `yaml:"certs,omitempty"`
	Runtime  string       `yaml:"runtime,omitempty"`
	Kube     KubeSpec     `yaml:"kube,omitempty"`
	Service  ServiceSpec  `yaml:"service,omitempty"`

	// path the config was loaded from, not part of the schema
	stackFile string `yaml:"-"`
}

// KeycloakSpec describes the keycloak version and image to deploy.
type KeycloakSpec struct {
	Version string      `yaml:"version"`
	Image   string      `yaml:"image,omitempty"`
	Flavor  ImageFlavor `yaml:"flavor,omitempty"`
}

// AdminSpec holds the bootstrap admin credentials. Values are
// env-substituted on load, so the password is normally supplied as
// ${KC_ADMIN_PASSWORD} rather than written into the file.
type AdminSpec struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// CertsSpec describes the certificate material of a stack.
type CertsSpec struct {
	Dir              string       `yaml:"dir,omitempty"`
	KeySize          int          `yaml:"key-size,omitempty"`
	Expiry           string       `yaml:"expiry,omitempty"`
	CAExpiry         string       `yaml:"ca-expiry,omitempty"`
	KeystorePassword string       `yaml:"keystore-password,omitempty"`
	Servers          []ServerCert `yaml:"servers,omitempty"`
}

// ServerCert is a single server certificate request: a name that defines
// the artifact filenames and the SANs the certificate is valid for.
type ServerCert struct {
	Name  string   `yaml:"name"`
	Hosts []string `yaml:"hosts"`
}

// KubeSpec holds the kubernetes deployment parameters.
type KubeSpec struct {
	Namespace  string   `yaml:"namespace,omitempty"`
	TLSSecret  string   `yaml:"tls-secret,omitempty"`
	Kubeconfig string   `yaml:"kubeconfig,omitempty"`
	Release    string   `yaml:"release,omitempty"`
	Set        []string `yaml:"set,omitempty"`
}

// ServiceSpec holds the bare-metal install parameters.
type ServiceSpec struct {
	Distribution string `yaml:"distribution,omitempty"`
	User         string `yaml:"user,omitempty"`
	HTTPSPort    int    `yaml:"https-port,omitempty"`
	Hostname     string `yaml:"hostname,omitempty"`
}

// ParseStackFile reads, env-substitutes and unmarshals a stack file.
func ParseStackFile(path string) (*StackConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("stack file %s not found: %w", path, err)
	}

	// expand ${VAR} references before unmarshalling, so that secrets
	// can be kept out of the stack file
	b, err := envsubst.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to env-substitute stack file %s: %w", path, err)
	}

	s := &StackConfig{}
	if err := yaml.UnmarshalStrict(b, s); err != nil {
		return nil, fmt.Errorf("failed to parse stack file %s: %w", path, err)
	}

	s.stackFile = absPath
	s.SetDefaults()

	if err := s.Verify(); err != nil {
		return nil, err
	}

	return s, nil
}

// StackFile returns the absolute path of the file the config was read from.
func (s *StackConfig) StackFile() string { return s.stackFile }

// SetDefaults fills in the defaults for all unset fields.
func (s *StackConfig) SetDefaults() {
	if s.Name == "" {
		s.Name = "keycloak"
	}
	if s.Keycloak.Image == "" {
		s.Keycloak.Image = defaultImageRepo
	}
	if s.Keycloak.Flavor == "" {
		s.Keycloak.Flavor = FlavorOfficial
	}
	if s.Admin.Username == "" {
		s.Admin.Username = "admin"
	}
	if s.Certs.Dir == "" {
		s.Certs.Dir = defaultCertDir
	}
	if s.Certs.KeySize == 0 {
		s.Certs.KeySize = defaultKeySize
	}
	if s.Certs.Expiry == "" {
		s.Certs.Expiry = defaultCertExpiry
	}
	if s.Certs.CAExpiry == "" {
		s.Certs.CAExpiry = defaultCAExpiry
	}
	if len(s.Certs.Servers) == 0 {
		s.Certs.Servers = []ServerCert{
			{Name: "keycloak", Hosts: []string{"localhost", "127.0.0.1", "keycloak"}},
		}
	}
	if s.Kube.Namespace == "" {
		s.Kube.Namespace = defaultNamespace
	}
	if s.Kube.TLSSecret == "" {
		s.Kube.TLSSecret = defaultTLSSecret
	}
	if s.Kube.Release == "" {
		s.Kube.Release = defaultReleaseName
	}
	if s.Service.Distribution == "" {
		s.Service.Distribution = defaultDistPath
	}
	if s.Service.User == "" {
		s.Service.User = defaultServiceUser
	}
	if s.Service.HTTPSPort == 0 {
		s.Service.HTTPSPort = PrivilegedHTTPSPort
	}
	if s.Service.Hostname == "" {
		s.Service.Hostname = "localhost"
	}
}

// Verify checks the stack config for errors a user could have made.
func (s *StackConfig) Verify() error {
	if s.Keycloak.Version == "" {
		return fmt.Errorf("keycloak.version must be set in the stack file")
	}

	switch s.Keycloak.Flavor {
	case FlavorDebian, FlavorOfficial:
	default:
		return fmt.Errorf("unknown image flavor %q, must be one of [%s, %s]",
			s.Keycloak.Flavor, FlavorDebian, FlavorOfficial)
	}

	names := map[string]struct{}{}
	for _, srv := range s.Certs.Servers {
		if srv.Name == "" {
			return fmt.Errorf("server certificate entries must have a name")
		}
		if len(srv.Hosts) == 0 {
			return fmt.Errorf("server certificate %q has no hosts", srv.Name)
		}
		if _, ok := names[srv.Name]; ok {
			return fmt.Errorf("duplicate server certificate name %q", srv.Name)
		}
		names[srv.Name] = struct{}{}
	}

	return nil
}

// Server returns the named server certificate entry.
func (s *StackConfig) Server(name string) (*ServerCert, error) {
	for i := range s.Certs.Servers {
		if s.Certs.Servers[i].Name == name {
			return &s.Certs.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server %q is not defined in the stack file", name)
}

// ImageRef returns the full image reference for the stack.
func (s *StackConfig) ImageRef() string {
	return fmt.Sprintf("%s:%s", s.Keycloak.Image, s.Keycloak.Version)
}
