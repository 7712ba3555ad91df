package quran

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
)

//go:embed data/quran-simple.xml
var defaultDataset []byte

// EmbeddedPath is the path reported in diagnostics for the bundled dataset.
const EmbeddedPath = "embedded"

const (
	suraElement = "//sura"

	attrName      = "name"
	attrText      = "text"
	attrBismillah = "bismillah"
)

var (
	xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

	ayaExpr = xpath.MustCompile("aya")
)

// LoadDefault loads the dataset compiled into the binary.
func LoadDefault() (*Corpus, error) {
	return load(bytes.NewReader(defaultDataset), EmbeddedPath)
}

// MustLoadDefault is like LoadDefault but panics on error. A malformed
// bundled dataset is a build defect, not a runtime condition.
func MustLoadDefault() *Corpus {
	c, err := LoadDefault()
	if err != nil {
		panic(fmt.Sprintf("quran: loading embedded dataset: %v", err))
	}
	return c
}

// LoadFile loads a Tanzil XML dataset from disk. Files may be xz-compressed.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	return load(f, path)
}

// LoadBytes loads a dataset held in memory.
func LoadBytes(data []byte) (*Corpus, error) {
	return load(bytes.NewReader(data), "")
}

// Load reads a Tanzil XML dataset from r in a single forward pass.
// Any decode error aborts the load; no partial corpus is returned.
func Load(r io.Reader) (*Corpus, error) {
	return load(r, "")
}

func load(r io.Reader, path string) (*Corpus, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, _ := br.Peek(len(xzMagic)); bytes.Equal(magic, xzMagic) {
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		src = xr
	}

	h := blake3.New()
	tee := io.TeeReader(src, h)

	sp, err := xmlquery.CreateStreamParser(tee, suraElement)
	if err != nil {
		return nil, parseError(path, err)
	}

	c := &Corpus{}
	for {
		sura, err := sp.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(path, err)
		}

		name, ok := attr(sura, attrName)
		if !ok {
			return nil, errors.NewParse("XML", path,
				fmt.Sprintf("sura %d has no %s attribute", len(c.Chapters)+1, attrName))
		}
		c.Chapters = append(c.Chapters, Chapter{Name: name})
		cur := len(c.Chapters) - 1

		for _, aya := range xmlquery.QuerySelectorAll(sura, ayaExpr) {
			text, ok := attr(aya, attrText)
			if !ok {
				return nil, errors.NewParse("XML", path,
					fmt.Sprintf("sura %d aya %d has no %s attribute", cur+1, len(c.Chapters[cur].Verses)+1, attrText))
			}
			if b, ok := attr(aya, attrBismillah); ok && c.Chapters[cur].Bismillah == "" {
				c.Chapters[cur].Bismillah = b
			}
			c.Chapters[cur].Verses = append(c.Chapters[cur].Verses, text)
		}
	}

	if len(c.Chapters) == 0 {
		return nil, errors.NewParse("XML", path, "no sura elements")
	}

	// The decoder stops at the root end tag; trailing bytes still belong to
	// the fingerprint.
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	c.Fingerprint = hex.EncodeToString(h.Sum(nil))
	return c, nil
}

func attr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseError(path string, err error) error {
	pe := &errors.ParseError{Format: "XML", Path: path, Message: err.Error(), Err: err}
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		pe.Line = syn.Line
		pe.Message = syn.Msg
	}
	return pe
}
