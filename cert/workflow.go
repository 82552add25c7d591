package cert

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	kcerrors "github.com/kcstack/kcstack/errors"
	"github.com/kcstack/kcstack/types"
	"github.com/kcstack/kcstack/utils"
)

// BootstrapCA creates the root CA unless it already exists. With force set,
// an existing CA is overwritten; note that this invalidates every server
// certificate previously signed by it.
func BootstrapCA(ca *CA, storage CertStorage, paths *types.CertPaths, input *CACSRInput, force bool) (*Certificate, error) {
	if utils.FileExists(paths.CACertAbsFilename()) && !force {
		caCert, err := storage.LoadCACert()
		if err != nil {
			return nil, err
		}
		if err := ca.SetCACert(caCert); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w at %s, use --force to overwrite", kcerrors.ErrCAExists, paths.CACertAbsFilename())
	}

	log.Infof("Creating root CA: CN=%s, O=%s, expiry=%s", input.CommonName, input.Organization, input.Expiry)

	caCert, err := ca.GenerateCACert(input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CA certificate: %w", err)
	}

	if err := storage.StoreCACert(caCert); err != nil {
		return nil, err
	}

	return caCert, nil
}

// LoadCA loads the root CA from storage into ca.
func LoadCA(ca *CA, storage CertStorage, paths *types.CertPaths) error {
	if !utils.FileExists(paths.CACertAbsFilename()) {
		return fmt.Errorf("%w at %s, run `kcstack cert ca create` first",
			kcerrors.ErrCANotFound, paths.CACertAbsFilename())
	}

	caCert, err := storage.LoadCACert()
	if err != nil {
		return err
	}

	return ca.SetCACert(caCert)
}

// IssueServerCert signs a server certificate with the CA and writes the
// full artifact set: cert, key, chain and, when keystorePassword is
// non-empty, the PKCS12 keystore.
func IssueServerCert(ca *CA, storage CertStorage, paths *types.CertPaths,
	input *ServerCSRInput, keystorePassword string,
) (*Certificate, error) {
	log.Infof("Creating and signing server certificate: name=%s, hosts=%q", input.Name, input.Hosts)

	srvCert, err := ca.GenerateAndSignServerCert(input)
	if err != nil {
		return nil, fmt.Errorf("failed to sign certificate for %q: %w", input.Name, err)
	}

	if err := storage.StoreServerCert(input.Name, srvCert); err != nil {
		return nil, err
	}

	caPEM := ca.CertPEM()

	chainPath := paths.ServerChainAbsFilename(input.Name)
	log.Debugf("writing chain file to %s", chainPath)
	if err := utils.CreateFile(chainPath, string(srvCert.ChainPEM(caPEM))); err != nil {
		return nil, err
	}

	if keystorePassword != "" {
		ksPath := paths.ServerKeystoreAbsFilename(input.Name)
		log.Debugf("writing PKCS12 keystore to %s", ksPath)
		if err := WriteKeystore(srvCert, caPEM, keystorePassword, ksPath); err != nil {
			return nil, err
		}
	}

	return srvCert, nil
}
