package cert

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

const defaultKeySize = 2048

// CA is a Certificate Authority.
type CA struct {
	key  crypto.PrivateKey
	cert *x509.Certificate
}

// NewCA initializes a Certificate Authority.
func NewCA() *CA {
	return &CA{}
}

// SetCACert sets the CA certificate with the provided certificate and key.
func (ca *CA) SetCACert(cert *Certificate) error {
	var err error

	// PEM to DER
	pbCert, _ := pem.Decode(cert.Cert)
	if pbCert == nil {
		return fmt.Errorf("failed to decode CA certificate PEM")
	}

	// parse the Certificate
	ca.cert, err = x509.ParseCertificate(pbCert.Bytes)
	if err != nil {
		return err
	}

	// parse the PrivateKey
	ca.key, err = ssh.ParseRawPrivateKey(cert.Key)
	if err != nil {
		return err
	}

	return nil
}

// GenerateCACert generates a self-signed CA certificate and key based on the provided input.
func (ca *CA) GenerateCACert(input *CACSRInput) (*Certificate, error) {
	keysize := defaultKeySize
	if input.KeySize > 0 {
		keysize = input.KeySize
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	// prepare the certificate template
	certTemplate := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         input.CommonName,
			Country:            []string{input.Country},
			Locality:           []string{input.Locality},
			Organization:       []string{input.Organization},
			OrganizationalUnit: []string{input.OrganizationUnit},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(input.Expiry),
		IsCA:                  true,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}

	// generate key
	caPrivKey, err := rsa.GenerateKey(rand.Reader, keysize)
	if err != nil {
		return nil, err
	}

	// create the certificate
	caBytes, err := x509.CreateCertificate(rand.Reader, certTemplate, certTemplate, &caPrivKey.PublicKey, caPrivKey)
	if err != nil {
		return nil, err
	}

	caCert := &Certificate{
		Cert: certPEMBytes(caBytes),
		Key:  keyPEMBytes(caPrivKey),
	}

	// make the freshly created CA usable for signing without an extra
	// SetCACert round trip
	ca.key = caPrivKey
	ca.cert, err = x509.ParseCertificate(caBytes)
	if err != nil {
		return nil, err
	}

	return caCert, nil
}

// GenerateAndSignServerCert generates a server certificate and key based on
// the provided input and signs the certificate with the CA.
func (ca *CA) GenerateAndSignServerCert(input *ServerCSRInput) (*Certificate, error) {
	if ca.cert == nil || ca.key == nil {
		return nil, fmt.Errorf("CA certificate is not initialized")
	}

	if len(input.Hosts) == 0 {
		return nil, fmt.Errorf("no hosts provided for server certificate %q", input.Name)
	}

	// parse hosts from input to retrieve dns and ip SANs
	dns, ip := parseHostsInput(input.Hosts)

	keysize := defaultKeySize
	if input.KeySize > 0 {
		keysize = input.KeySize
	}

	expiry := time.Until(time.Now().AddDate(1, 0, 0)) // 1 year as default
	if input.Expiry > 0 {
		expiry = input.Expiry
	}

	commonName := input.CommonName
	if commonName == "" {
		commonName = input.Hosts[0]
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	certTemplate := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         commonName,
			Country:            []string{input.Country},
			Locality:           []string{input.Locality},
			Organization:       []string{input.Organization},
			OrganizationalUnit: []string{input.OrganizationUnit},
		},
		DNSNames:    dns,
		IPAddresses: ip,
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(expiry),
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}

	newPrivKey, err := rsa.GenerateKey(rand.Reader, keysize)
	if err != nil {
		return nil, err
	}

	// create the certificate
	certBytes, err := x509.CreateCertificate(rand.Reader, certTemplate, ca.cert, &newPrivKey.PublicKey, ca.key)
	if err != nil {
		return nil, err
	}

	return &Certificate{
		Cert: certPEMBytes(certBytes),
		Key:  keyPEMBytes(newPrivKey),
	}, nil
}

// CertPEM returns the PEM encoded CA certificate.
func (ca *CA) CertPEM() []byte {
	if ca.cert == nil {
		return nil
	}
	return certPEMBytes(ca.cert.Raw)
}

func certPEMBytes(der []byte) []byte {
	buf := new(bytes.Buffer)
	pem.Encode(buf, &pem.Block{ //nolint:errcheck
		Type:  "CERTIFICATE",
		Bytes: der,
	})
	return buf.Bytes()
}

func keyPEMBytes(key *rsa.PrivateKey) []byte {
	buf := new(bytes.Buffer)
	pem.Encode(buf, &pem.Block{ //nolint:errcheck
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return buf.Bytes()
}

func newSerialNumber() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(rand.Reader, limit)
}

func parseHostsInput(hosts []string) ([]string, []net.IP) {
	var dns []string
	var ip []net.IP

	for _, host := range hosts {
		if parsed := net.ParseIP(host); parsed != nil {
			ip = append(ip, parsed)
		} else {
			dns = append(dns, host)
		}
	}

	return dns, ip
}
