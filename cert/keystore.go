package cert

import (
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/ssh"
	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/kcstack/kcstack/utils"
)

// WriteKeystore bundles the certificate, its private key and the CA
// certificate into a PKCS12 keystore protected by password and writes it
// to path. The java-based keycloak server consumes this bundle directly
// via KC_HTTPS_KEYSTORE_FILE.
func WriteKeystore(c *Certificate, caCertPEM []byte, password, path string) error {
	leaf, err := c.X509Certificate()
	if err != nil {
		return fmt.Errorf("failed to parse certificate for keystore: %w", err)
	}

	key, err := ssh.ParseRawPrivateKey(c.Key)
	if err != nil {
		return fmt.Errorf("failed to parse private key for keystore: %w", err)
	}

	caBlock, _ := pem.Decode(caCertPEM)
	if caBlock == nil {
		return fmt.Errorf("failed to decode CA certificate PEM")
	}
	caCert, err := x509.ParseCertificate(caBlock.Bytes)
	if err != nil {
		return err
	}

	b, err := pkcs12.Encode(rand.Reader, key, leaf, []*x509.Certificate{caCert}, password)
	if err != nil {
		return fmt.Errorf("failed to encode PKCS12 keystore: %w", err)
	}

	return utils.CreateFile(path, string(b))
}
