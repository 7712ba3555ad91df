// Package export writes a loaded corpus back out as Tanzil XML (optionally
// xz-compressed) or as a SQLite database.
package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/core/sqlite"
)

// Format names an export target.
type Format string

const (
	FormatXML    Format = "xml"
	FormatXMLXZ  Format = "xml.xz"
	FormatSQLite Format = "sqlite"
)

// Formats lists the supported targets in the order shown to users.
var Formats = []Format{FormatXML, FormatXMLXZ, FormatSQLite}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewValidation("format", s, "must be one of xml, xml.xz, sqlite")
}

// Extension returns the conventional file suffix for f.
func (f Format) Extension() string {
	if f == FormatSQLite {
		return ".db"
	}
	return "." + string(f)
}

// ToFile writes c to path in the given format and returns the size of the
// resulting file. An existing file is replaced.
func ToFile(ctx context.Context, c *quran.Corpus, format Format, path string) (int64, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, errors.NewIO("mkdir", dir, err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return 0, errors.NewIO("remove", path, err)
	}

	switch format {
	case FormatSQLite:
		db, err := sqlite.Open(path)
		if err != nil {
			return 0, errors.NewIO("open", path, err)
		}
		err = WriteSQLite(ctx, db, c)
		if cerr := db.Close(); err == nil && cerr != nil {
			err = errors.NewIO("close", path, cerr)
		}
		if err != nil {
			return 0, err
		}
	case FormatXML, FormatXMLXZ:
		f, err := os.Create(path)
		if err != nil {
			return 0, errors.NewIO("create", path, err)
		}
		if format == FormatXMLXZ {
			err = WriteXMLXZ(f, c)
		} else {
			err = WriteXML(f, c)
		}
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.NewIO("close", path, cerr)
		}
		if err != nil {
			return 0, err
		}
	default:
		return 0, errors.NewValidation("format", string(format), "unsupported export format")
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.NewIO("stat", path, err)
	}
	return info.Size(), nil
}
