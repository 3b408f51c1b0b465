// Package unraid reads the Unraid settings that influence Tailscale warnings.
package unraid

import (
	"path/filepath"

	"gopkg.in/ini.v1"
)

const (
	shareConfigFile = "share.cfg"
	identConfigFile = "ident.cfg"
)

// Settings holds raw flag values; a missing file or key leaves the field empty.
type Settings struct {
	SMBEnabled string
	UseNetbios string
}

// Load reads share.cfg and ident.cfg from dir (normally /boot/config).
func Load(dir string) (Settings, error) {
	smb, err := readKey(filepath.Join(dir, shareConfigFile), "shareSMBEnabled")
	if err != nil {
		return Settings{}, err
	}
	netbios, err := readKey(filepath.Join(dir, identConfigFile), "USE_NETBIOS")
	if err != nil {
		return Settings{}, err
	}

	return Settings{SMBEnabled: smb, UseNetbios: netbios}, nil
}

// readKey returns "" for a missing file; only unparsable files are errors.
func readKey(path, key string) (string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, path)
	if err != nil {
		return "", err
	}
	return cfg.Section(ini.DefaultSection).Key(key).String(), nil
}
