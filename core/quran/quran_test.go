package quran

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
)

const fixtureXML = `<?xml version="1.0" encoding="utf-8" ?>
<quran>
	<sura index="1" name="Al-Fatihah">
		<aya index="1" text="in the name of god"/>
		<aya index="2" text="praise be to god"/>
		<aya index="3" text="the merciful"/>
		<aya index="4" text="master of the day"/>
		<aya index="5" text="you alone we worship"/>
		<aya index="6" text="guide us"/>
		<aya index="7" text="the path of those"/>
	</sura>
	<sura index="2" name="Al-Baqarah">
		<aya index="1" text="alif lam mim" bismillah="in the name of god"/>
		<aya index="2" text="this is the book"/>
	</sura>
	<sura index="3" name="Al-Imran">
		<aya index="1" text="alif lam mim" bismillah="in the name of god"/>
		<aya index="2" text="god, there is no deity"/>
		<aya index="3" text="he has sent down the book"/>
		<aya index="4" text="before, as guidance"/>
		<aya index="5" text="nothing is hidden from god"/>
	</sura>
</quran>
`

func loadFixture(t *testing.T) *Corpus {
	t.Helper()
	c, err := LoadBytes([]byte(fixtureXML))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	return c
}

// collect flattens a Subset into per-sura 1-based aya numbers.
func collect(s Subset) map[int][]int {
	out := map[int][]int{}
	for sc := range s.Chapters() {
		for _, m := range sc.Matches() {
			out[sc.Number] = append(out[sc.Number], m.Number)
		}
	}
	return out
}

func TestLoadFixture(t *testing.T) {
	c := loadFixture(t)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if c.VerseCount() != 14 {
		t.Errorf("VerseCount() = %d, want 14", c.VerseCount())
	}

	want := []Chapter{
		{Name: "Al-Fatihah", Verses: []string{
			"in the name of god", "praise be to god", "the merciful", "master of the day",
			"you alone we worship", "guide us", "the path of those",
		}},
		{Name: "Al-Baqarah", Bismillah: "in the name of god", Verses: []string{
			"alif lam mim", "this is the book",
		}},
		{Name: "Al-Imran", Bismillah: "in the name of god", Verses: []string{
			"alif lam mim", "god, there is no deity", "he has sent down the book",
			"before, as guidance", "nothing is hidden from god",
		}},
	}
	if diff := cmp.Diff(want, c.Chapters); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}

	if c.Chapters[0].HasBismillah() {
		t.Error("Al-Fatihah should have no bismillah")
	}
	if len(c.Fingerprint) != 64 {
		t.Errorf("Fingerprint length = %d, want 64", len(c.Fingerprint))
	}
}

func TestLoadDefault(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}

	ch, ok := c.Chapter(1)
	if !ok {
		t.Fatal("chapter 1 missing")
	}
	if ch.Name != "الفاتحة" {
		t.Errorf("chapter 1 name = %q", ch.Name)
	}
	if len(ch.Verses) != 7 {
		t.Errorf("chapter 1 has %d verses, want 7", len(ch.Verses))
	}
	if ch.HasBismillah() {
		t.Error("chapter 1 should carry no bismillah attribute")
	}

	for n := 2; n <= c.Len(); n++ {
		if ch, _ := c.Chapter(n); !ch.HasBismillah() {
			t.Errorf("chapter %d should carry a bismillah", n)
		}
	}

	if c.Fingerprint != MustLoadDefault().Fingerprint {
		t.Error("fingerprint is not deterministic")
	}
}

func TestVerse(t *testing.T) {
	c := loadFixture(t)

	tests := []struct {
		chapter, verse int
		want           string
		ok             bool
	}{
		{1, 1, "in the name of god", true},
		{1, 7, "the path of those", true},
		{1, 8, "", false},
		{2, 1, "alif lam mim", true},
		{3, 5, "nothing is hidden from god", true},
		{4, 1, "", false},
		{0, 1, "", false},
		{1, 0, "", false},
		{-1, 1, "", false},
		{1, -1, "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d:%d", tt.chapter, tt.verse), func(t *testing.T) {
			got, ok := c.Verse(tt.chapter, tt.verse)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Verse(%d, %d) = (%q, %v), want (%q, %v)", tt.chapter, tt.verse, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestVerseMatchesLoadedText(t *testing.T) {
	c := MustLoadDefault()
	for i, ch := range c.Chapters {
		for j, text := range ch.Verses {
			got, ok := c.Verse(i+1, j+1)
			if !ok || got != text {
				t.Fatalf("Verse(%d, %d) = (%q, %v), want %q", i+1, j+1, got, ok, text)
			}
		}
		if _, ok := c.Verse(i+1, len(ch.Verses)+1); ok {
			t.Errorf("Verse(%d, %d) should be out of range", i+1, len(ch.Verses)+1)
		}
	}
	if _, ok := c.Verse(c.Len()+1, 1); ok {
		t.Error("verse after last chapter should be out of range")
	}
}

func TestChapter(t *testing.T) {
	c := loadFixture(t)
	if _, ok := c.Chapter(0); ok {
		t.Error("Chapter(0) should be out of range")
	}
	if _, ok := c.Chapter(4); ok {
		t.Error("Chapter(4) should be out of range")
	}
	ch, ok := c.Chapter(2)
	if !ok || ch.Name != "Al-Baqarah" {
		t.Errorf("Chapter(2) = (%v, %v)", ch, ok)
	}
}

func TestFilterAlwaysTrue(t *testing.T) {
	c := loadFixture(t)
	s := c.Filter(func(int, int, string) bool { return true })

	want := map[int][]int{
		1: {1, 2, 3, 4, 5, 6, 7},
		2: {1, 2},
		3: {1, 2, 3, 4, 5},
	}
	if diff := cmp.Diff(want, collect(s)); diff != "" {
		t.Errorf("always-true subset mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != c.VerseCount() {
		t.Errorf("Len() = %d, want %d", s.Len(), c.VerseCount())
	}
	if diff := cmp.Diff(collect(s), collect(c.All())); diff != "" {
		t.Errorf("All() differs from always-true filter:\n%s", diff)
	}
}

func TestFilterAlwaysFalse(t *testing.T) {
	c := loadFixture(t)
	s := c.Filter(func(int, int, string) bool { return false })

	for sc := range s.Chapters() {
		t.Errorf("unexpected chapter %d in empty subset", sc.Number)
	}
	if !s.Empty() || s.Len() != 0 {
		t.Errorf("Empty() = %v, Len() = %d", s.Empty(), s.Len())
	}
}

func TestFilterPredicateArguments(t *testing.T) {
	c := loadFixture(t)
	var seen []string
	c.Filter(func(chapter, verse int, text string) bool {
		want, _ := c.Verse(chapter, verse)
		if text != want {
			t.Errorf("predicate(%d, %d) got text %q, want %q", chapter, verse, text, want)
		}
		seen = append(seen, fmt.Sprintf("%d:%d", chapter, verse))
		return false
	})

	want := []string{
		"1:1", "1:2", "1:3", "1:4", "1:5", "1:6", "1:7",
		"2:1", "2:2",
		"3:1", "3:2", "3:3", "3:4", "3:5",
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("evaluation order mismatch (-want +got):\n%s", diff)
	}
}

func TestSubsetSkipsEmptyChapters(t *testing.T) {
	c := loadFixture(t)
	s := c.Filter(func(chapter, verse int, _ string) bool {
		return chapter != 2 && verse == 1
	})

	var numbers []int
	for sc := range s.Chapters() {
		numbers = append(numbers, sc.Number)
	}
	if diff := cmp.Diff([]int{1, 3}, numbers); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
	if got := s.Positions(2); len(got) != 0 {
		t.Errorf("Positions(2) = %v, want empty", got)
	}
	if got := s.Positions(3); !cmp.Equal(got, []int{0}) {
		t.Errorf("Positions(3) = %v, want [0]", got)
	}
	if s.Positions(0) != nil || s.Positions(9) != nil {
		t.Error("Positions out of range should be nil")
	}
}

func TestSubsetChaptersRestartable(t *testing.T) {
	c := loadFixture(t)
	s := c.Search("god")

	first, second := collect(s), collect(s)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second enumeration differs:\n%s", diff)
	}

	n := 0
	for range s.Chapters() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early break visited %d chapters", n)
	}
}

func TestSearchSingleMatch(t *testing.T) {
	c := loadFixture(t)
	s := c.Search("hidden")

	var got []SubsetChapter
	for sc := range s.Chapters() {
		got = append(got, sc)
	}
	if len(got) != 1 {
		t.Fatalf("got %d chapters, want 1", len(got))
	}
	if got[0].Number != 3 {
		t.Errorf("chapter = %d, want 3", got[0].Number)
	}
	if diff := cmp.Diff([]int{4}, got[0].Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if m := got[0].Matches(); m[0].Number != 5 || m[0].Text != "nothing is hidden from god" {
		t.Errorf("Matches() = %+v", m)
	}
}

func TestSearchEmptyQueryMatchesAll(t *testing.T) {
	c := MustLoadDefault()
	if diff := cmp.Diff(collect(c.All()), collect(c.Search(""))); diff != "" {
		t.Errorf("empty query differs from All():\n%s", diff)
	}
}

func TestSearchCaseSensitive(t *testing.T) {
	c := loadFixture(t)
	if !c.Search("HIDDEN").Empty() {
		t.Error("search should be case-sensitive")
	}
}

func TestSearchIgnoresHarakat(t *testing.T) {
	c := MustLoadDefault()

	tests := []struct {
		name  string
		query string
	}{
		{"bare letters", "الحمد لله"},
		{"fully vocalized", "الْحَمْدُ لِلَّهِ"},
		{"partially vocalized", "الحَمد"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(c.Search(tt.query))
			if diff := cmp.Diff(map[int][]int{1: {2}}, got); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no marks", "abc def", "abc def"},
		{"arabic without marks", "الحمد", "الحمد"},
		{"strips fatha damma kasra", "بَبُبِ", "ببب"},
		{"strips shadda sukun", "لّْ", "ل"},
		{"keeps tanwin", "هُدًى", "هدًى"},
		{"keeps superscript alef", "الرَّحْمَٰنِ", "الرحمٰن"},
		{"keeps small high marks", "رَيْبَ ۛ فِيهِ", "ريب ۛ فيه"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	c := MustLoadDefault()
	for _, ch := range c.Chapters {
		for _, v := range ch.Verses {
			once := Normalize(v)
			if twice := Normalize(once); twice != once {
				t.Errorf("Normalize not idempotent for %q: %q != %q", v, twice, once)
			}
		}
	}
}

func TestNormalizeInterleaved(t *testing.T) {
	base := []rune("سلامabc١٢")
	var in, want strings.Builder
	for i, r := range base {
		mark := rune(0x064E + i%5)
		in.WriteRune(mark)
		in.WriteRune(r)
		in.WriteRune(mark)
		want.WriteRune(r)
	}
	if got := Normalize(in.String()); got != want.String() {
		t.Errorf("Normalize(%q) = %q, want %q", in.String(), got, want.String())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine bool
	}{
		{"empty input", "", false},
		{"no suras", `<quran></quran>`, false},
		{"mismatched tags", "<quran>\n<sura name=\"a\">\n<aya text=\"x\">\n</sura>\n</quran>", true},
		{"sura without name", `<quran><sura><aya text="x"/></sura></quran>`, false},
		{"aya without text", `<quran><sura name="a"><aya/></sura></quran>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadBytes([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error, got corpus with %d chapters", c.Len())
			}
			if c != nil {
				t.Error("partial corpus returned alongside error")
			}
			var pe *errors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a ParseError: %v", err, err)
			}
			if tt.wantLine && pe.Line == 0 {
				t.Errorf("expected line diagnostic, got %v", pe)
			}
		})
	}
}

func TestLoadBismillahFirstSeenWins(t *testing.T) {
	c, err := LoadBytes([]byte(`<quran><sura name="a">
		<aya text="one" bismillah="first"/>
		<aya text="two" bismillah="second"/>
	</sura></quran>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Chapters[0].Bismillah; got != "first" {
		t.Errorf("Bismillah = %q, want %q", got, "first")
	}
}

func TestLoadIgnoresUnknownElementsAndText(t *testing.T) {
	c, err := LoadBytes([]byte(`<quran>
		loose text
		<meta version="1"/>
		<sura name="a">note<aya text="one"/><comment/><aya text="two"/></sura>
	</quran>`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, c.Chapters[0].Verses); diff != "" {
		t.Errorf("verses mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadXZ(t *testing.T) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(fixtureXML)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "quran.xml.xz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := loadFixture(t)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("xz corpus differs (-plain +xz):\n%s", diff)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.xml"))
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %T: %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{in: "114", want: Ref{Sura: 114}},
		{in: "2:255", want: Ref{Sura: 2, From: 255, To: 255}},
		{in: "2.255", want: Ref{Sura: 2, From: 255, To: 255}},
		{in: " 2 : 1 - 5 ", want: Ref{Sura: 2, From: 1, To: 5}},
		{in: "", wantErr: true},
		{in: "0:1", wantErr: true},
		{in: "2:0", wantErr: true},
		{in: "2:5-1", wantErr: true},
		{in: "a:b", wantErr: true},
		{in: "2:", wantErr: true},
		{in: "2:1:3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRef(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRefString(t *testing.T) {
	for _, s := range []string{"114", "2:255", "2:1-5"} {
		ref, err := ParseRef(s)
		if err != nil {
			t.Fatal(err)
		}
		if ref.String() != s {
			t.Errorf("String() = %q, want %q", ref.String(), s)
		}
	}
}

func TestLookup(t *testing.T) {
	c := loadFixture(t)

	tests := []struct {
		ref  Ref
		want map[int][]int
		ok   bool
	}{
		{Ref{Sura: 2}, map[int][]int{2: {1, 2}}, true},
		{Ref{Sura: 3, From: 2, To: 4}, map[int][]int{3: {2, 3, 4}}, true},
		{Ref{Sura: 1, From: 7, To: 7}, map[int][]int{1: {7}}, true},
		{Ref{Sura: 1, From: 7, To: 8}, nil, false},
		{Ref{Sura: 4}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			s, ok := c.Lookup(tt.ref)
			if ok != tt.ok {
				t.Fatalf("Lookup(%v) ok = %v, want %v", tt.ref, ok, tt.ok)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, collect(s)); diff != "" {
				t.Errorf("Lookup(%v) mismatch (-want +got):\n%s", tt.ref, diff)
			}
		})
	}
}
