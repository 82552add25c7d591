package cert

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kcstack/kcstack/types"
)

const (
	certFileMode fs.FileMode = 0o644
	keyFileMode  fs.FileMode = 0o600
)

// FixPermissions normalizes the permissions of all certificate artifacts:
// certificates, chains and keystores become world-readable (0644), private
// keys owner-only (0600). When running as root, server artifacts are
// additionally chowned to uid/gid 1000 so that a rootless keycloak
// container can read them through a bind mount. A non-root operator whose
// uid differs from 1000 cannot chown, so server keys fall back to 0644
// there, otherwise the container would not be able to read them.
func FixPermissions(paths *types.CertPaths) error {
	euid := os.Geteuid()
	chown := euid == 0

	return filepath.Walk(paths.CADir(), func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		mode := certFileMode
		if strings.HasSuffix(path, types.KeyFileSuffix) {
			mode = keyFileMode
			if strings.HasPrefix(path, paths.ServersDir()) {
				mode = serverKeyMode(euid)
				if mode != keyFileMode && info.Mode().Perm() != mode {
					log.Warnf("making %s readable by uid %d, run fix-permissions as root to keep it owner-only",
						path, types.RootlessUID)
				}
			}
		}

		if info.Mode().Perm() != mode {
			log.Debugf("chmod %o %s", mode, path)
			if err := os.Chmod(path, mode); err != nil {
				return err
			}
		}

		// the CA key stays owned by the operator; everything under
		// servers/ is meant to be mounted into the container
		if chown && strings.HasPrefix(path, paths.ServersDir()) {
			log.Debugf("chown %d:%d %s", types.RootlessUID, types.RootlessGID, path)
			if err := os.Chown(path, types.RootlessUID, types.RootlessGID); err != nil {
				return err
			}
		}

		return nil
	})
}

// serverKeyMode returns the mode a server key gets for the given
// effective uid. Keys stay owner-only when the owner is or can be made
// the container uid, otherwise they become world-readable.
func serverKeyMode(euid int) fs.FileMode {
	if euid == 0 || euid == types.RootlessUID {
		return keyFileMode
	}
	return certFileMode
}
