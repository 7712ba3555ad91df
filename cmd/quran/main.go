// Command quran reads, searches and serves the Quran corpus.
package main

import (
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/config"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
)

const version = "0.1.0"

// Globals are the flags shared by every command. Flags win over the config
// file, which wins over built-in defaults.
type Globals struct {
	Config    string `name:"config" short:"c" help:"Config file path" default:"${config_path}" type:"path"`
	Data      string `name:"data" help:"Tanzil XML dataset (.xml or .xml.xz); the embedded dataset is used when empty" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
}

// CLI defines the command-line interface for quran.
type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Start the web reader and JSON API"`
	List    ListCmd    `cmd:"" help:"List all suras"`
	Sura    SuraCmd    `cmd:"" help:"Print one sura"`
	Aya     AyaCmd     `cmd:"" help:"Print one aya"`
	Show    ShowCmd    `cmd:"" help:"Print the ayat named by a reference such as 2:255 or 2:1-5"`
	Search  SearchCmd  `cmd:"" help:"Print the ayat containing a query"`
	TUI     TUICmd     `cmd:"" name:"tui" help:"Search interactively in the terminal"`
	Export  ExportCmd  `cmd:"" help:"Write the corpus as XML or SQLite"`
	Info    InfoCmd    `cmd:"" help:"Describe the loaded dataset"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// app is the state shared by command Run methods.
type app struct {
	out    io.Writer
	cfg    *config.Config
	corpus *quran.Corpus
}

// newApp loads configuration, applies flag overrides and initializes
// logging.
func newApp(g *Globals, out io.Writer) (*app, error) {
	cfg, err := config.LoadWithEnv(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Data != "" {
		cfg.DataPath = g.Data
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	logging.InitLogger(level, format)

	return &app{out: out, cfg: cfg}, nil
}

// loadCorpus loads the configured dataset once per process.
func (a *app) loadCorpus() (*quran.Corpus, error) {
	if a.corpus != nil {
		return a.corpus, nil
	}

	start := time.Now()
	source := a.cfg.DataPath
	var (
		c   *quran.Corpus
		err error
	)
	if source == "" {
		source = quran.EmbeddedPath
		c, err = quran.LoadDefault()
	} else {
		c, err = quran.LoadFile(source)
	}
	if err != nil {
		logging.Error("failed to load corpus", "source", source, "error", err)
		return nil, err
	}
	logging.CorpusLoaded(source, c.Len(), c.VerseCount(), c.Fingerprint, time.Since(start))
	a.corpus = c
	return c, nil
}

func newParser(cli *CLI, out io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("quran"),
		kong.Description("Quran reader - browse and search the Tanzil text"),
		kong.UsageOnError(),
		kong.Vars{"config_path": config.DefaultPath},
		kong.Writers(out, os.Stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	a, err := newApp(&cli.Globals, os.Stdout)
	ctx.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run(a))
}
