// Package sqliteexternal links the CGO SQLite driver (mattn/go-sqlite3)
// into builds that ask for it.
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/quran
//
// Without the tag, core/sqlite uses modernc.org/sqlite and the binary needs
// no C toolchain. The CGO driver is mainly useful when exporting the corpus
// to SQLite on platforms where the C library is already present.
package sqliteexternal
