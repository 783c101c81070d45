// Package migrations embeds the goose migration sets for the two schema
// domains: the control-plane (master) database and the per-tenant church
// databases. Tenant migrations are applied by the provisioning saga every
// time a new tenant database is created, so both domains ship inside the
// binary.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed master/*.sql
var masterFS embed.FS

//go:embed tenant/*.sql
var tenantFS embed.FS

// Master returns the control-plane migration set.
func Master() fs.FS {
	sub, err := fs.Sub(masterFS, "master")
	if err != nil {
		panic(err)
	}
	return sub
}

// Tenant returns the per-tenant schema migration set.
func Tenant() fs.FS {
	sub, err := fs.Sub(tenantFS, "tenant")
	if err != nil {
		panic(err)
	}
	return sub
}
