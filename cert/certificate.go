package cert

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kcstack/kcstack/utils"
)

// Certificate stores the combination of Cert and Key along with the CSR if available.
type Certificate struct {
	Cert []byte
	Key  []byte
	Csr  []byte
}

// NewCertificateFromFile creates a new Certificate by loading cert, key and csr (if exists) from the respective files.
func NewCertificateFromFile(certFilePath, keyFilePath, csrFilePath string) (*Certificate, error) {
	cert := &Certificate{}

	// Cert
	_, err := os.Stat(certFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed loading cert file %v", err)
	}
	cert.Cert, err = utils.ReadFileContent(certFilePath)
	if err != nil {
		return nil, err
	}

	// Key
	_, err = os.Stat(keyFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed loading key file %v", err)
	}
	cert.Key, err = utils.ReadFileContent(keyFilePath)
	if err != nil {
		return nil, err
	}

	// CSR
	// The CSR might not be there, which is not an issue, just skip it
	if csrFilePath != "" {
		_, err = os.Stat(csrFilePath)
		if err != nil {
			log.Debugf("failed loading csr %s, continuing anyways", csrFilePath)
		} else {
			cert.Csr, err = utils.ReadFileContent(csrFilePath)
			if err != nil {
				return nil, err
			}
		}
	}

	return cert, nil
}

// Write writes the cert, key and csr to disk.
func (c *Certificate) Write(certPath, keyPath, csrPath string) error {
	log.Debugf("writing cert file to %s", certPath)

	err := utils.CreateFile(certPath, string(c.Cert))
	if err != nil {
		return err
	}

	log.Debugf("writing key file to %s", keyPath)
	err = utils.CreateFile(keyPath, string(c.Key))
	if err != nil {
		return err
	}

	// save csr if its length is >0 and path is not empty
	if len(c.Csr) != 0 && csrPath != "" {
		log.Debugf("writing csr file to %s", csrPath)

		err = utils.CreateFile(csrPath, string(c.Csr))
		if err != nil {
			return err
		}
	}

	return nil
}

// X509Certificate parses the PEM encoded certificate into its x509 representation.
func (c *Certificate) X509Certificate() (*x509.Certificate, error) {
	block, _ := pem.Decode(c.Cert)
	if block == nil {
		return nil, fmt.Errorf("failed to decode certificate PEM")
	}
	return x509.ParseCertificate(block.Bytes)
}

// ChainPEM returns the certificate chain: the leaf certificate followed by
// the CA certificate, in PEM form.
func (c *Certificate) ChainPEM(caCertPEM []byte) []byte {
	chain := bytes.TrimRight(c.Cert, "\n")
	chain = append(chain, '\n')
	return append(chain, caCertPEM...)
}

// VerifyAgainst verifies the certificate against the provided CA
// certificate: the signature chain must check out and the certificate must
// be inside its validity window.
func (c *Certificate) VerifyAgainst(caCertPEM []byte) error {
	leaf, err := c.X509Certificate()
	if err != nil {
		return err
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caCertPEM) {
		return fmt.Errorf("failed to parse CA certificate")
	}

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:       roots,
		CurrentTime: time.Now(),
		KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	if err != nil {
		return fmt.Errorf("certificate verification failed: %w", err)
	}

	return nil
}
