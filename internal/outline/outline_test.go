package outline

import (
	"strings"
	"testing"

	"github.com/dgallion1/docintel/internal/doctree"
)

func TestProfile_BodyStyleByCharacters(t *testing.T) {
	doc := &doctree.Document{Pages: []doctree.Page{
		testPage(1, block(heading("A Very Large Heading", 20)), paragraph()),
	}}
	p := Profile(doc)
	if p.BodySize != 10 || p.BodyFamily != "Times-Roman" {
		t.Errorf("expected body 10/Times-Roman, got %v/%s", p.BodySize, p.BodyFamily)
	}
	if p.Empty() {
		t.Errorf("expected non-empty profile")
	}
}

func TestProfile_Empty(t *testing.T) {
	if !Profile(&doctree.Document{}).Empty() {
		t.Errorf("expected empty profile for document without pages")
	}
}

func TestSignals(t *testing.T) {
	prof := FontProfile{BodySize: 10, Chars: 100}
	cfg := DefaultConfig()
	left := doctree.BBox{X0: 72, X1: 150}
	center := doctree.BBox{X0: 256, X1: 356}

	tests := []struct {
		name string
		l    lineFacts
		sig  Signal
		want bool
	}{
		{"larger above margin", lineFacts{text: "x", size: 10.6}, SignalLarger, true},
		{"larger within margin", lineFacts{text: "x", size: 10.5}, SignalLarger, false},
		{"bold", lineFacts{text: "x", bold: true}, SignalBold, true},
		{"short", lineFacts{text: "a few words"}, SignalShort, true},
		{"not short", lineFacts{text: strings.Repeat("w ", 25)}, SignalShort, false},
		{"sentence", lineFacts{text: "It ends here."}, SignalNotSentence, false},
		{"not sentence", lineFacts{text: "Methods"}, SignalNotSentence, true},
		{"date", lineFacts{text: "March 21, 2003"}, SignalNotDate, false},
		{"not date", lineFacts{text: "Results 2003"}, SignalNotDate, true},
		{"numbered arabic", lineFacts{text: "2. Methods"}, SignalNumbered, true},
		{"numbered sub", lineFacts{text: "2.1 Data"}, SignalNumbered, true},
		{"numbered roman", lineFacts{text: "IV. Results"}, SignalNumbered, true},
		{"numbered letter", lineFacts{text: "B. Annex"}, SignalNumbered, true},
		{"not numbered", lineFacts{text: "Methods"}, SignalNumbered, false},
		{"article word", lineFacts{text: "A quick word on safety"}, SignalNumbered, false},
		{"pronoun", lineFacts{text: "I went there twice"}, SignalNumbered, false},
		{"leading year", lineFacts{text: "2024 results were strong"}, SignalNumbered, false},
		{"all caps", lineFacts{text: "RESULTS"}, SignalAllCaps, true},
		{"all caps too short", lineFacts{text: "ABC"}, SignalAllCaps, false},
		{"mixed case", lineFacts{text: "Results"}, SignalAllCaps, false},
		{"centered", lineFacts{text: "x", bbox: center, pageWidth: 612}, SignalCentered, true},
		{"left aligned", lineFacts{text: "x", bbox: left, pageWidth: 612}, SignalCentered, false},
		{"centered on offset media box", lineFacts{text: "x", bbox: doctree.BBox{X0: 356, X1: 456}, pageX0: 100, pageWidth: 612}, SignalCentered, true},
		{"page center ignores offset", lineFacts{text: "x", bbox: center, pageX0: 100, pageWidth: 612}, SignalCentered, false},
		{"known section", lineFacts{text: "Appendix A: Tables"}, SignalKnownSection, true},
		{"unknown section", lineFacts{text: "Methods"}, SignalKnownSection, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeSignals(tt.l, prof, cfg).Has(tt.sig)
			if got != tt.want {
				t.Errorf("%s on %q: got %v, want %v", tt.sig, tt.l.text, got, tt.want)
			}
		})
	}
}

func TestAccepts(t *testing.T) {
	required := setOf(SignalShort, SignalNotSentence, SignalNotDate)
	tests := []struct {
		name string
		set  SignalSet
		want bool
	}{
		{"strong plus required", required.With(SignalBold), true},
		{"required only", required, false},
		{"strong missing short", setOf(SignalLarger, SignalNotSentence, SignalNotDate), false},
		{"strong but sentence", setOf(SignalLarger, SignalShort, SignalNotDate), false},
		{"strong but date", setOf(SignalCentered, SignalShort, SignalNotSentence), false},
	}
	for _, tt := range tests {
		if got := Accepts(tt.set); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSignalString(t *testing.T) {
	if SignalKnownSection.String() != "knownSection" {
		t.Errorf("unexpected name %q", SignalKnownSection.String())
	}
	got := setOf(SignalBold, SignalLarger).Signals()
	if len(got) != 2 || got[0] != SignalLarger || got[1] != SignalBold {
		t.Errorf("unexpected signal order %v", got)
	}
}

func TestDetect_SkipsMultiLineBlocks(t *testing.T) {
	doc := &doctree.Document{Pages: []doctree.Page{
		testPage(1,
			block(heading("Big Heading", 16), heading("Second Line", 16)),
			paragraph(),
		),
	}}
	cands := Detect(doc, Profile(doc), DefaultConfig())
	if len(cands) != 0 {
		t.Errorf("expected no candidates from multi-line blocks, got %+v", cands)
	}
}

func TestDetect_PlainSentencesAreNotCandidates(t *testing.T) {
	for _, text := range []string{"A quick word on safety", "I went there twice", "2024 results were strong"} {
		doc := &doctree.Document{Pages: []doctree.Page{
			testPage(1, paragraph(), block(body(text)), paragraph()),
		}}
		if cands := Detect(doc, Profile(doc), DefaultConfig()); len(cands) != 0 {
			t.Errorf("%q: expected no candidates, got %+v", text, cands)
		}
	}
}

// Scenario: metadata title wins and is not padded.
func TestExtract_MetadataTitle(t *testing.T) {
	doc := &doctree.Document{
		MetadataTitle: "Spec Document",
		Pages: []doctree.Page{
			testPage(1, block(heading("Project Background", 14)), paragraph()),
		},
	}
	out := Extract(doc, DefaultConfig())
	if out.Title != "Spec Document" {
		t.Errorf("expected title %q, got %q", "Spec Document", out.Title)
	}
	want := []doctree.HeadingEntry{{Level: doctree.H1, Text: "Project Background ", Page: 1, SourcePage: 1}}
	if len(out.Entries) != 1 || out.Entries[0] != want[0] {
		t.Errorf("expected %+v, got %+v", want, out.Entries)
	}
}

// Scenario: numbering overrides the size table.
func TestExtract_NumberingOverrides(t *testing.T) {
	doc := &doctree.Document{Pages: []doctree.Page{
		testPage(1,
			block(heading("Annual Report", 18)),
			block(heading("1. Intro", 12)),
			paragraph(),
			block(heading("1.1 Sub", 11)),
			paragraph(),
		),
	}}
	out := Extract(doc, DefaultConfig())

	levels := map[string]doctree.Level{}
	for _, e := range out.Entries {
		levels[e.Text] = e.Level
	}
	if levels["Annual Report "] != doctree.H1 {
		t.Errorf("expected Annual Report H1, got %q", levels["Annual Report "])
	}
	if levels["1. Intro "] != doctree.H1 {
		t.Errorf("expected 1. Intro forced to H1, got %q", levels["1. Intro "])
	}
	if levels["1.1 Sub "] != doctree.H2 {
		t.Errorf("expected 1.1 Sub forced to H2, got %q", levels["1.1 Sub "])
	}
	if out.Title != "Annual Report  " {
		t.Errorf("expected heading title with two trailing spaces, got %q", out.Title)
	}
}

// Scenario: a short heading-free first page is a cover page.
func TestExtract_CoverPageShift(t *testing.T) {
	cover := block(
		body(strings.Repeat("c", 70)+"."),
		body(strings.Repeat("d", 79)+"."),
	)
	doc := &doctree.Document{Pages: []doctree.Page{
		testPage(1, cover),
		testPage(2, block(heading("Background", 14)), paragraph()),
		testPage(3, block(heading("Findings", 14)), paragraph()),
	}}
	if n := len(doc.PageText(1)); n >= 200 {
		t.Fatalf("fixture: page 1 has %d chars, want fewer than 200", n)
	}

	res := Analyze(doc, DefaultConfig())
	if !res.CoverPageShifted {
		t.Fatalf("expected cover page shift")
	}
	pages := map[string][2]int{}
	for _, e := range res.Outline.Entries {
		pages[e.Text] = [2]int{e.Page, e.SourcePage}
	}
	if pages["Findings "] != [2]int{2, 3} {
		t.Errorf("expected Findings on page 2 (source 3), got %v", pages["Findings "])
	}
	if pages["Background "] != [2]int{1, 2} {
		t.Errorf("expected Background on page 1 (source 2), got %v", pages["Background "])
	}
}

func TestCorrectCoverPage_NotApplied(t *testing.T) {
	long := block(body(strings.Repeat("word ", 50) + "end."))
	tests := []struct {
		name string
		doc  *doctree.Document
	}{
		{"single page", &doctree.Document{Pages: []doctree.Page{testPage(1, block(body("x.")))}}},
		{"long first page", &doctree.Document{Pages: []doctree.Page{testPage(1, long), testPage(2)}}},
	}
	for _, tt := range tests {
		cands := []Candidate{{Text: "H", Page: 2, SourcePage: 2}}
		if CorrectCoverPage(cands, tt.doc, DefaultConfig()) {
			t.Errorf("%s: expected no shift", tt.name)
		}
		if cands[0].Page != 2 {
			t.Errorf("%s: page changed to %d", tt.name, cands[0].Page)
		}
	}

	doc := &doctree.Document{Pages: []doctree.Page{testPage(1), testPage(2)}}
	cands := []Candidate{{Text: "On cover", Page: 1, SourcePage: 1}}
	if CorrectCoverPage(cands, doc, DefaultConfig()) {
		t.Errorf("expected no shift when page 1 has a heading")
	}
}

func TestResolveTitle(t *testing.T) {
	cands := []Candidate{
		{Text: "Small", FontSize: 12, Page: 1},
		{Text: "Biggest Late", FontSize: 30, Page: 3},
		{Text: "Big Early", FontSize: 20, Page: 2},
		{Text: "Also Big Early", FontSize: 20, Page: 2},
	}
	tests := []struct {
		name  string
		meta  string
		cands []Candidate
		want  string
	}{
		{"metadata", " Clean Title ", cands, "Clean Title"},
		{"placeholder metadata", "Untitled", cands, "Big Early  "},
		{"largest early", "", cands, "Big Early  "},
		{"first candidate", "", cands[1:2], "Biggest Late  "},
		{"none", "", nil, TitleNotFound},
	}
	for _, tt := range tests {
		if got := ResolveTitle(tt.meta, tt.cands); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
		// Determinism.
		if a, b := ResolveTitle(tt.meta, tt.cands), ResolveTitle(tt.meta, tt.cands); a != b {
			t.Errorf("%s: nondeterministic title %q vs %q", tt.name, a, b)
		}
	}
}

func TestSizeLevels(t *testing.T) {
	tests := []struct {
		sizes []float64
		want  map[float64]doctree.Level
	}{
		{[]float64{12}, map[float64]doctree.Level{12: doctree.H1}},
		{[]float64{12, 16, 12}, map[float64]doctree.Level{16: doctree.H1, 12: doctree.H2}},
		{[]float64{11, 20, 14, 12}, map[float64]doctree.Level{20: doctree.H1, 14: doctree.H2, 12: doctree.H3, 11: doctree.H3}},
	}
	for _, tt := range tests {
		var cands []Candidate
		for _, s := range tt.sizes {
			cands = append(cands, Candidate{FontSize: s})
		}
		got := SizeLevels(cands)
		if len(got) != len(tt.want) {
			t.Errorf("sizes %v: got %v, want %v", tt.sizes, got, tt.want)
			continue
		}
		for s, l := range tt.want {
			if got[s] != l {
				t.Errorf("sizes %v: size %v got %q, want %q", tt.sizes, s, got[s], l)
			}
		}
	}
}

func TestBuild_OrderAndLevels(t *testing.T) {
	cands := []Candidate{
		{Text: "Third", FontSize: 12, Page: 2},
		{Text: "First", FontSize: 12, Page: 1},
		{Text: "Second", FontSize: 18, Page: 2},
		{Text: "Glossary", FontSize: 10, Page: 3, Signals: setOf(SignalKnownSection)},
	}
	entries := Build(cands)
	wantText := []string{"First ", "Second ", "Third ", "Glossary "}
	if len(entries) != len(wantText) {
		t.Fatalf("expected %d entries, got %d", len(wantText), len(entries))
	}
	for i, w := range wantText {
		if entries[i].Text != w {
			t.Errorf("entry %d: got %q, want %q", i, entries[i].Text, w)
		}
		if !entries[i].Level.Valid() {
			t.Errorf("entry %d: invalid level %q", i, entries[i].Level)
		}
		if i > 0 && entries[i].Page < entries[i-1].Page {
			t.Errorf("entry %d: page order broken", i)
		}
	}
	if entries[3].Level != doctree.H1 {
		t.Errorf("expected known section forced to H1, got %q", entries[3].Level)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	out := Extract(&doctree.Document{MetadataTitle: "Ignored", Pages: []doctree.Page{{Number: 1}}}, DefaultConfig())
	if out.Title != TitleNotFound {
		t.Errorf("expected %q, got %q", TitleNotFound, out.Title)
	}
	if out.Entries == nil || len(out.Entries) != 0 {
		t.Errorf("expected empty non-nil entries, got %#v", out.Entries)
	}
	if Extract(nil, DefaultConfig()).Title != TitleNotFound {
		t.Errorf("expected sentinel title for nil document")
	}
}
