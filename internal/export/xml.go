package export

import (
	"encoding/xml"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/core/quran"
)

type tanzilDoc struct {
	XMLName xml.Name     `xml:"quran"`
	Suras   []tanzilSura `xml:"sura"`
}

type tanzilSura struct {
	Index int         `xml:"index,attr"`
	Name  string      `xml:"name,attr"`
	Ayat  []tanzilAya `xml:"aya"`
}

type tanzilAya struct {
	Index     int    `xml:"index,attr"`
	Text      string `xml:"text,attr"`
	Bismillah string `xml:"bismillah,attr,omitempty"`
}

func toTanzil(c *quran.Corpus) tanzilDoc {
	doc := tanzilDoc{Suras: make([]tanzilSura, len(c.Chapters))}
	for i, ch := range c.Chapters {
		s := tanzilSura{Index: i + 1, Name: ch.Name, Ayat: make([]tanzilAya, len(ch.Verses))}
		for j, text := range ch.Verses {
			s.Ayat[j] = tanzilAya{Index: j + 1, Text: text}
		}
		if ch.HasBismillah() && len(s.Ayat) > 0 {
			s.Ayat[0].Bismillah = ch.Bismillah
		}
		doc.Suras[i] = s
	}
	return doc
}

// WriteXML writes c in the Tanzil layout read by quran.Load.
func WriteXML(w io.Writer, c *quran.Corpus) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "export xml")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(toTanzil(c)); err != nil {
		return errors.Wrap(err, "export xml")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "export xml")
	}
	_, err := io.WriteString(w, "\n")
	return errors.Wrap(err, "export xml")
}

// WriteXMLXZ is WriteXML behind an xz stream.
func WriteXMLXZ(w io.Writer, c *quran.Corpus) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "export xml.xz")
	}
	if err := WriteXML(xw, c); err != nil {
		xw.Close()
		return err
	}
	return errors.Wrap(xw.Close(), "export xml.xz")
}
