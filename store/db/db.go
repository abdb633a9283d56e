// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/profile"
	"github.com/ronniejay22/Knot-APP-sub003/store"
	"github.com/ronniejay22/Knot-APP-sub003/store/db/postgres"
	"github.com/ronniejay22/Knot-APP-sub003/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "postgres":
		return postgres.NewDB(profile)
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
