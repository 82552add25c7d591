package cert

import (
	"path/filepath"

	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

const permissionsOpen = 0o755

// LocalDirCertStorage is a certificate storage that stores certificates in
// the fixed local directory layout described by types.CertPaths.
type LocalDirCertStorage struct {
	paths *types.CertPaths
}

// NewLocalDirCertStorage inits a new LocalDirCertStorage.
func NewLocalDirCertStorage(paths *types.CertPaths) *LocalDirCertStorage {
	return &LocalDirCertStorage{
		paths: paths,
	}
}

// LoadCACert loads the CA certificate from disk.
func (c *LocalDirCertStorage) LoadCACert() (*Certificate, error) {
	return NewCertificateFromFile(c.paths.CACertAbsFilename(), c.paths.CAKeyAbsFilename(), "")
}

// LoadServerCert loads the server certificate from disk.
func (c *LocalDirCertStorage) LoadServerCert(serverName string) (*Certificate, error) {
	certFilename := c.paths.ServerCertAbsFilename(serverName)
	keyFilename := c.paths.ServerKeyAbsFilename(serverName)
	csrFilename := c.paths.ServerCSRAbsFilename(serverName)
	return NewCertificateFromFile(certFilename, keyFilename, csrFilename)
}

// StoreCACert stores the given CA certificate, its key and CSR on disk.
func (c *LocalDirCertStorage) StoreCACert(cert *Certificate) error {
	// CA cert/key/csr live directly in the ca dir,
	// so we need to create it if it does not exist.
	utils.CreateDirectory(filepath.Dir(c.paths.CACertAbsFilename()), permissionsOpen)

	return cert.Write(c.paths.CACertAbsFilename(), c.paths.CAKeyAbsFilename(), c.paths.CACSRAbsFilename())
}

// StoreServerCert stores the given certificate in the servers folder.
func (c *LocalDirCertStorage) StoreServerCert(serverName string, cert *Certificate) error {
	// create the servers folder if it does not exist
	utils.CreateDirectory(c.paths.ServersDir(), permissionsOpen)

	// write cert files
	return cert.Write(c.paths.ServerCertAbsFilename(serverName),
		c.paths.ServerKeyAbsFilename(serverName), c.paths.ServerCSRAbsFilename(serverName))
}
