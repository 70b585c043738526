package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/keyring"
	"github.com/julianstephens/routinely/internal/storage/postgres"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
	"github.com/julianstephens/routinely/internal/utils"
)

var (
	_ Provider = (*MemoryStore)(nil)
	_ Provider = (*JSONStore)(nil)
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
)

// Open selects a backend for the --config value:
//
//	:memory:             in-process map
//	keyring              PostgreSQL, connection string from env or OS keyring
//	postgres://...       PostgreSQL, password must come from .pgpass or PGPASSWORD
//	*.json               single JSON file
//	anything else        SQLite database file
func Open(config string) (Provider, error) {
	config = strings.TrimSpace(config)

	switch {
	case config == constants.MemoryConfig:
		return NewMemoryStore(), nil

	case config == constants.KeyringConfig:
		connStr, source, err := keyring.ResolveConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database connection: %w (set %s or run 'routinely keyring set')", err, constants.ConnectionEnvVar)
		}
		if _, err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, fmt.Errorf("connection string from %s: %w", source, err)
		}
		return postgres.New(connStr), nil

	case postgres.IsConnectionString(config):
		if _, err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		return postgres.New(config), nil
	}

	path, err := utils.ExpandHome(config)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}
