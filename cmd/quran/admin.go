package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/core/sqlite"
	"github.com/FocuswithJustin/JuniperQuran/internal/export"
)

// ExportCmd writes the loaded corpus to a file.
type ExportCmd struct {
	Format string `short:"f" help:"Output format" enum:"xml,xml.xz,sqlite" default:"xml"`
	Out    string `short:"o" required:"" help:"Output file" type:"path"`
}

func (c *ExportCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	size, err := export.ToFile(context.Background(), corpus, format, c.Out)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s ayat to %s (%s)\n",
		humanize.Comma(int64(corpus.VerseCount())), c.Out, humanize.Bytes(uint64(size)))
	return nil
}

// fullSuraCount is the number of suras in a complete mushaf.
const fullSuraCount = 114

// InfoCmd describes the dataset and the linked SQLite driver. With --db it
// also describes a database written by "export --format sqlite".
type InfoCmd struct {
	DB string `help:"Exported SQLite database to describe" type:"existingfile"`
}

func (c *InfoCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}

	source := "embedded"
	if a.cfg.DataPath != "" {
		source = a.cfg.DataPath
		if st, err := os.Stat(a.cfg.DataPath); err == nil {
			source = fmt.Sprintf("%s (%s)", a.cfg.DataPath, humanize.Bytes(uint64(st.Size())))
		}
	} else if corpus.Len() < fullSuraCount {
		source = fmt.Sprintf("embedded (abridged: %d of %d suras; set data_path for the full text)", corpus.Len(), fullSuraCount)
	}

	withBismillah := 0
	for i := range corpus.Chapters {
		if corpus.Chapters[i].HasBismillah() {
			withBismillah++
		}
	}

	drv := sqlite.GetInfo()
	fmt.Fprintf(a.out, "Source:      %s\n", source)
	fmt.Fprintf(a.out, "Suras:       %s (%s with bismillah)\n", humanize.Comma(int64(corpus.Len())), humanize.Comma(int64(withBismillah)))
	fmt.Fprintf(a.out, "Ayat:        %s\n", humanize.Comma(int64(corpus.VerseCount())))
	fmt.Fprintf(a.out, "Fingerprint: %s\n", corpus.Fingerprint)
	fmt.Fprintf(a.out, "SQLite:      %s (%s, %s)\n", drv.DriverName, drv.DriverType, drv.Package)

	if c.DB == "" {
		return nil
	}
	return describeDB(context.Background(), a, c.DB, corpus.Fingerprint)
}

// describeDB prints the row counts and fingerprint of an exported database,
// opened read-only so inspecting it never modifies the file.
func describeDB(ctx context.Context, a *app, path, fingerprint string) error {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	var suras, ayat int
	var fp string
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suras`).Scan(&suras); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ayat`).Scan(&ayat); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := db.QueryRowContext(ctx, `SELECT value FROM info WHERE name = 'fingerprint'`).Scan(&fp); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	v, err := sqlite.Version(ctx, db)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	match := "differs from loaded dataset"
	if fp == fingerprint {
		match = "matches loaded dataset"
	}
	fmt.Fprintf(a.out, "Database:    %s (SQLite %s)\n", path, v)
	fmt.Fprintf(a.out, "  Suras:     %s\n", humanize.Comma(int64(suras)))
	fmt.Fprintf(a.out, "  Ayat:      %s\n", humanize.Comma(int64(ayat)))
	fmt.Fprintf(a.out, "  Fingerprint: %s (%s)\n", fp, match)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "quran version %s (%s)\n", version, runtime.Version())
	return nil
}
