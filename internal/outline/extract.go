package outline

import "github.com/dgallion1/docintel/internal/doctree"

// Result is the outline plus the intermediate facts that produced it.
type Result struct {
	Outline          doctree.Outline
	Profile          FontProfile
	Candidates       []Candidate
	CoverPageShifted bool
}

// Extract runs profiling, detection, cover-page correction, title
// resolution and level assignment over doc. A document without text yields
// an empty outline titled TitleNotFound.
func Extract(doc *doctree.Document, cfg Config) doctree.Outline {
	return Analyze(doc, cfg).Outline
}

// Analyze is Extract with the intermediate results kept.
func Analyze(doc *doctree.Document, cfg Config) Result {
	cfg = cfg.withDefaults()
	res := Result{
		Outline: doctree.Outline{Title: TitleNotFound, Entries: []doctree.HeadingEntry{}},
	}
	if doc == nil {
		return res
	}

	res.Profile = Profile(doc)
	if res.Profile.Empty() {
		return res
	}

	res.Candidates = Detect(doc, res.Profile, cfg)
	res.CoverPageShifted = CorrectCoverPage(res.Candidates, doc, cfg)
	res.Outline.Title = ResolveTitle(doc.MetadataTitle, res.Candidates)
	res.Outline.Entries = Build(res.Candidates)
	return res
}
