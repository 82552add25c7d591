package cmd

import (
	"testing"
	"time"

	"github.com/kcstack/kcstack/types"
)

func testStack(t *testing.T) *types.StackConfig {
	t.Helper()
	s := &types.StackConfig{Keycloak: types.KeycloakSpec{Version: "26.0.7"}}
	s.SetDefaults()
	return s
}

// ca create and sign advertise different subject defaults; registering
// them on shared variables would leave the CA with the sign defaults.
func TestCAInputDefaults(t *testing.T) {
	s := testStack(t)

	in, err := caInput(s)
	if err != nil {
		t.Fatalf("caInput() error = %v", err)
	}

	if in.CommonName != "kcstack.dev" {
		t.Errorf("CommonName = %q, want kcstack.dev", in.CommonName)
	}
	if in.OrganizationUnit != "kcstack CA" {
		t.Errorf("OrganizationUnit = %q, want \"kcstack CA\"", in.OrganizationUnit)
	}
	if in.Organization != "kcstack" {
		t.Errorf("Organization = %q, want kcstack", in.Organization)
	}
	if in.Expiry != 87600*time.Hour {
		t.Errorf("Expiry = %v, want 87600h from the stack default", in.Expiry)
	}
}

func TestServerInputDefaults(t *testing.T) {
	s := testStack(t)
	srv := &s.Certs.Servers[0]

	in, err := serverInput(s, srv)
	if err != nil {
		t.Fatalf("serverInput() error = %v", err)
	}

	// an empty CN falls back to the first host at signing time
	if in.CommonName != "" {
		t.Errorf("CommonName = %q, want empty", in.CommonName)
	}
	if in.OrganizationUnit != "kcstack" {
		t.Errorf("OrganizationUnit = %q, want kcstack", in.OrganizationUnit)
	}
	if in.Expiry != 8760*time.Hour {
		t.Errorf("Expiry = %v, want 8760h from the stack default", in.Expiry)
	}
	if len(in.Hosts) != 3 {
		t.Errorf("Hosts = %v, want the stack default hosts", in.Hosts)
	}
}
