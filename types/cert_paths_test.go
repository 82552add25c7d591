package types

import (
	"path/filepath"
	"testing"
)

func TestCertPathsLayout(t *testing.T) {
	base := t.TempDir()

	paths, err := NewCertPaths(base)
	if err != nil {
		t.Fatalf("NewCertPaths() error = %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ca dir", paths.CADir(), filepath.Join(base, "ca")},
		{"ca cert", paths.CACertAbsFilename(), filepath.Join(base, "ca", "ca.pem")},
		{"ca key", paths.CAKeyAbsFilename(), filepath.Join(base, "ca", "ca.key")},
		{"ca csr", paths.CACSRAbsFilename(), filepath.Join(base, "ca", "ca.csr")},
		{"servers dir", paths.ServersDir(), filepath.Join(base, "ca", "servers")},
		{"server cert", paths.ServerCertAbsFilename("kc"), filepath.Join(base, "ca", "servers", "kc.crt")},
		{"server key", paths.ServerKeyAbsFilename("kc"), filepath.Join(base, "ca", "servers", "kc.key")},
		{"server csr", paths.ServerCSRAbsFilename("kc"), filepath.Join(base, "ca", "servers", "kc.csr")},
		{"server chain", paths.ServerChainAbsFilename("kc"), filepath.Join(base, "ca", "servers", "kc.chain.crt")},
		{"server keystore", paths.ServerKeystoreAbsFilename("kc"), filepath.Join(base, "ca", "servers", "kc.p12")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNewCertPathsRelative(t *testing.T) {
	paths, err := NewCertPaths("certs")
	if err != nil {
		t.Fatalf("NewCertPaths() error = %v", err)
	}
	if !filepath.IsAbs(paths.BaseDir()) {
		t.Errorf("BaseDir() = %q, want an absolute path", paths.BaseDir())
	}
}
