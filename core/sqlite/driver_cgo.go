//go:build cgo_sqlite

// The CGO driver lives in contrib/sqlite-external so the default build
// never links C code.
package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/JuniperQuran/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)
