// Package settings provides the persisted layers behind the session state:
// a user-global configuration file managed with viper, and a secret file
// holding the API key.
//
// Files are stored in the XDG directories:
//
//	$XDG_CONFIG_HOME/deepledit/settings.yaml  (default: ~/.config/deepledit/)
//	$XDG_DATA_HOME/deepledit/secrets.json     (default: ~/.local/share/deepledit/)
//
// Reads never fail: absent or unreadable values resolve to the documented
// defaults. The secret file is written with 0600 permissions.
package settings
