// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package types

import (
	"path"
	"path/filepath"
)

const (
	caFolder      = "ca"
	serversFolder = "servers"
)

// CertPaths derives all certificate artifact paths from the base
// certificate directory. The layout is fixed:
//
//	<base>/ca/ca.pem
//	<base>/ca/ca.key
//	<base>/ca/ca.csr
//	<base>/ca/servers/<name>.crt
//	<base>/ca/servers/<name>.key
//	<base>/ca/servers/<name>.csr
//	<base>/ca/servers/<name>.chain.crt
//	<base>/ca/servers/<name>.p12
type CertPaths struct {
	base string
}

// NewCertPaths constructs a CertPaths rooted at baseDir.
func NewCertPaths(baseDir string) (*CertPaths, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &CertPaths{base: abs}, nil
}

// BaseDir returns the certificate base directory.
func (c *CertPaths) BaseDir() string { return c.base }

// CADir returns the directory holding the root CA material.
func (c *CertPaths) CADir() string {
	return path.Join(c.base, caFolder)
}

// CACertAbsFilename returns the path of the root CA certificate.
func (c *CertPaths) CACertAbsFilename() string {
	return path.Join(c.CADir(), CACertFileName)
}

// CAKeyAbsFilename returns the path of the root CA private key.
func (c *CertPaths) CAKeyAbsFilename() string {
	return path.Join(c.CADir(), CAKeyFileName)
}

// CACSRAbsFilename returns the path of the root CA CSR.
func (c *CertPaths) CACSRAbsFilename() string {
	return path.Join(c.CADir(), CACSRFileName)
}

// ServersDir returns the directory holding all server certificates.
func (c *CertPaths) ServersDir() string {
	return path.Join(c.CADir(), serversFolder)
}

// ServerCertAbsFilename returns the certificate path for a named server.
func (c *CertPaths) ServerCertAbsFilename(name string) string {
	return path.Join(c.ServersDir(), name+CertFileSuffix)
}

// ServerKeyAbsFilename returns the private key path for a named server.
func (c *CertPaths) ServerKeyAbsFilename(name string) string {
	return path.Join(c.ServersDir(), name+KeyFileSuffix)
}

// ServerCSRAbsFilename returns the CSR path for a named server.
func (c *CertPaths) ServerCSRAbsFilename(name string) string {
	return path.Join(c.ServersDir(), name+CSRFileSuffix)
}

// ServerChainAbsFilename returns the certificate chain path for a named server.
func (c *CertPaths) ServerChainAbsFilename(name string) string {
	return path.Join(c.ServersDir(), name+ChainFileSuffix)
}

// ServerKeystoreAbsFilename returns the PKCS12 keystore path for a named server.
func (c *CertPaths) ServerKeystoreAbsFilename(name string) string {
	return path.Join(c.ServersDir(), name+KeystoreFileSuffix)
}
