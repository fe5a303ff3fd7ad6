package matching

import (
	"regexp"
	"strings"
)

// Delimiters that separate a title from the artists embedded in it.
// Brackets are included so "song (feat. x)" leaves "song" as the first fragment.
var titleArtistDelimiters = []string{
	`\[`, `\]`, `\{`, `\}`, `\(`, `\)`,
	`\bft\.\s+`, `\bft\b`,
	`\bfeat\.\s+`, `\bfeat\b`, `\bfeaturing\b`,
	`\bw/\s+`, `\bx\b`,
	`\s+&\s+`, `\s+\+\s+`,
	`\blive\b\s*\bat\b`,
}

// Delimiters between artists found after the title. "with", "and" and commas
// only split here, so titles such as "Stand By Me And You" survive phase one.
var featuredArtistDelimiters = []string{
	`\bft\.\s+`, `\bft\b`,
	`\bfeat\.\s+`, `\bfeat\b`, `\bfeaturing\b`,
	`\bwith\b`,
	`\bw/\s+`, `\bx\b`,
	`\s+&\s+`, `\s+\+\s+`,
	`\band\b`,
	`\blive\b\s*\bat\b`,
	`(?:\s+|\b),(?:\s+|\b)`,
}

var artistDelimiters = append([]string{`\[`, `\]`, `\{`, `\}`, `\(`, `\)`}, featuredArtistDelimiters...)

// Tokens that mark a bracketed group as an artist credit, e.g. "(feat. someone)".
// Other bracketed groups, such as "(Remix)", stay part of the title.
var creditTokens = []string{
	`\bft\.\s+`, `\bft\b`,
	`\bfeat\.\s+`, `\bfeat\b`, `\bfeaturing\b`,
	`\bwith\b`,
	`\bw/\s+`, `\bx\b`,
	`\s+&\s+`, `\s+\+\s+`,
	`\blive\b\s*\bat\b`,
}

var reBracketGroup = regexp.MustCompile(`[\(\[\{]([^\(\)\[\]\{\}]*)[\)\]\}]`)

var titleSuffixes = []string{" single version", " (single version)", " radio edit"}

var (
	punctuationRemove  = []string{"'", "’", "?", "#", "*", "!"}
	punctuationReplace = []string{"/", "-", "."}
)

type spelling struct {
	check string
	re    *regexp.Regexp
	repl  string
}

var spellings = []spelling{
	{check: "cryin", re: regexp.MustCompile(`\bcryin\b`), repl: "crying"},
	{check: "%", re: regexp.MustCompile(`%`), repl: " percent "},
}

var (
	reBracketCredit  = buildPattern(creditTokens, false, false)
	reTitleArtist    = buildPattern(titleArtistDelimiters, false, false)
	reFeaturedArtist = buildPattern(featuredArtistDelimiters, false, false)
	reSplitArtists   = buildPattern(artistDelimiters, false, false)
	rePunctRemove    = buildPattern(punctuationRemove, true, true)
	rePunctReplace   = buildPattern(punctuationReplace, true, true)
)

// buildPattern joins values into a single non-capturing alternation.
// escape quotes each value literally and allowMultiple lets each alternative repeat.
// It panics on an invalid table, so a bad entry fails at start up.
func buildPattern(values []string, escape, allowMultiple bool) *regexp.Regexp {
	items := make([]string, 0, len(values))
	for _, v := range values {
		if escape {
			v = regexp.QuoteMeta(v)
		}
		if allowMultiple {
			v = "(?:" + v + ")+"
		}
		items = append(items, v)
	}
	return regexp.MustCompile("(?:" + strings.Join(items, "|") + ")")
}
