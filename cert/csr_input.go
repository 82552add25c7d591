package cert

import "time"

// CACSRInput struct holds the input values for a CA certificate.
type CACSRInput struct {
	CommonName       string
	Country          string
	Locality         string
	Organization     string
	OrganizationUnit string
	Expiry           time.Duration
	KeySize          int
}

// ServerCSRInput struct holds the input values for a server certificate
// signed by the CA.
type ServerCSRInput struct {
	Name             string
	Hosts            []string
	CommonName       string
	Country          string
	Locality         string
	Organization     string
	OrganizationUnit string
	Expiry           time.Duration
	KeySize          int
}
