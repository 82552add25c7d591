package cert

// Cert is a wrapper struct for the Certificate Authority and the Certificate Storage.
type Cert struct {
	*CA
	CertStorage
}

// CertStorage is an interface that wraps methods to load and store certificates.
type CertStorage interface {
	LoadCACert() (*Certificate, error)
	LoadServerCert(serverName string) (*Certificate, error)
	StoreCACert(cert *Certificate) error
	StoreServerCert(serverName string, cert *Certificate) error
}
