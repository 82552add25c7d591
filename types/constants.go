// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package types

const (
	// file suffixes used in the certificate directory layout.
	CertFileSuffix     = ".crt"
	KeyFileSuffix      = ".key"
	CSRFileSuffix      = ".csr"
	KeystoreFileSuffix = ".p12"
	ChainFileSuffix    = ".chain.crt"

	// CACertFileName is the fixed name of the root CA certificate.
	CACertFileName = "ca.pem"
	CAKeyFileName  = "ca.key"
	CACSRFileName  = "ca.csr"

	// DefaultHTTPSPort is the port keycloak serves TLS on in containers.
	DefaultHTTPSPort = 8443
	// DefaultHTTPPort is the plain http port of keycloak dev mode.
	DefaultHTTPPort = 8080
	// PrivilegedHTTPSPort is the port a bare-metal install binds with
	// CAP_NET_BIND_SERVICE.
	PrivilegedHTTPSPort = 443

	// RootlessUID is the in-container uid keycloak runs with.
	// Certificate files mounted into rootless containers must be
	// readable by this uid.
	RootlessUID = 1000
	RootlessGID = 1000

	FormatTable = "table"
	FormatJSON  = "json"
	FormatPlain = "plain"

	// container labels
	ToolLabel      = "kcstack"
	NodeNameLabel  = "kcstack-node-name"
	StackFileLabel = "kcstack-stack-file"

	// keycloak container environment
	EnvAdminUsername      = "KC_BOOTSTRAP_ADMIN_USERNAME"
	EnvAdminPassword      = "KC_BOOTSTRAP_ADMIN_PASSWORD"
	EnvHTTPEnabled        = "KC_HTTP_ENABLED"
	EnvHTTPSPort          = "KC_HTTPS_PORT"
	EnvHTTPSCertFile      = "KC_HTTPS_CERTIFICATE_FILE"
	EnvHTTPSCertKeyFile   = "KC_HTTPS_CERTIFICATE_KEY_FILE"
	EnvHTTPSKeystoreFile  = "KC_HTTPS_KEYSTORE_FILE"
	EnvHTTPSKeystorePass  = "KC_HTTPS_KEYSTORE_PASSWORD"
	EnvDB                 = "KC_DB"
	EnvDBURLHost          = "KC_DB_URL_HOST"
	EnvDBURLDatabase      = "KC_DB_URL_DATABASE"
	EnvDBUsername         = "KC_DB_USERNAME"
	EnvDBPassword         = "KC_DB_PASSWORD"
	EnvKeycloakVersionArg = "KEYCLOAK_VERSION"
	EnvTargetPlatformArg  = "TARGETPLATFORM"
)
