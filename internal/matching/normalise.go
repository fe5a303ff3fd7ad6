package matching

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/music-playlists/internal/models"
)

// Normaliser converts titles and artists into their canonical form and compares tracks.
//
// A Normaliser holds no mutable state and may be shared between goroutines.
type Normaliser struct {
	logger *log.Logger
	cache  bool
}

// Option configures a [Normaliser].
type Option func(*Normaliser)

// WithoutCache disables memoisation of the normalisation steps.
func WithoutCache() Option {
	return func(n *Normaliser) { n.cache = false }
}

// WithLogger sets the logger used for match decisions.
func WithLogger(l *log.Logger) Option {
	return func(n *Normaliser) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNormaliser creates a [Normaliser] with caching enabled.
func NewNormaliser(opts ...Option) *Normaliser {
	n := &Normaliser{logger: log.Default(), cache: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type titleSplit struct {
	title   string
	artists []string
}

var (
	collapseSpacesMemo = newMemo(collapseSpaces)
	removeSpacesMemo   = newMemo(removeSpaces)
	caseFoldMemo       = newMemo(caseFold)
	splitTitleMemo     = newMemo(splitTitleArtist)
	splitArtistMemo    = newMemo(splitArtist)
	punctuationMemo    = newMemo(punctuation)
	suffixMemo         = newMemo(stripTitleSuffix)
	spellingMemo       = newMemo(fixSpelling)
	encodingMemo       = newMemo(asciiFold)
)

// ResetCache empties the process-wide step cache.
func ResetCache() {
	collapseSpacesMemo.reset()
	removeSpacesMemo.reset()
	caseFoldMemo.reset()
	splitTitleMemo.reset()
	splitArtistMemo.reset()
	punctuationMemo.reset()
	suffixMemo.reset()
	spellingMemo.reset()
	encodingMemo.reset()
}

// Normalise returns the canonical form of a title and its artists.
//
// The resulting artists are the split original artists followed by any artists found in the title.
// Duplicates are kept. An empty title gives an empty title and nil artists give no artists.
func (n *Normaliser) Normalise(title string, artists []string) *models.TrackNormalised {
	c := n.cache

	each := func(values []string, step *memo[string]) []string {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = step.get(v, c)
		}
		return out
	}

	t := collapseSpacesMemo.get(title, c)
	a := each(artists, collapseSpacesMemo)

	t = caseFoldMemo.get(t, c)
	a = each(a, caseFoldMemo)

	split := splitTitleMemo.get(t, c)
	t = split.title
	combined := make([]string, 0, len(a)+len(split.artists))
	for _, artist := range a {
		combined = append(combined, splitArtistMemo.get(artist, c)...)
	}
	a = append(combined, split.artists...)

	t = punctuationMemo.get(t, c)
	a = each(a, punctuationMemo)

	t = suffixMemo.get(t, c)

	t = spellingMemo.get(t, c)
	a = each(a, spellingMemo)

	t = encodingMemo.get(t, c)
	a = each(a, encodingMemo)

	t = collapseSpacesMemo.get(t, c)
	a = each(a, collapseSpacesMemo)

	return models.NewTrackNormalised(t, a)
}

// NormaliseTrack computes and stores the normalised form of track, once per track.
// A nil track returns nil.
func (n *Normaliser) NormaliseTrack(track *models.Track) *models.TrackNormalised {
	if track == nil {
		return nil
	}
	return track.NormaliseWith(n.Normalise)
}

// NormaliseTrackList normalises every track in list.
func (n *Normaliser) NormaliseTrackList(list *models.TrackList) {
	if list == nil {
		return
	}
	for _, track := range list.Tracks {
		n.NormaliseTrack(track)
	}
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func removeSpaces(value string) string {
	return strings.Join(strings.Fields(value), "")
}

// caseFold builds a new Caser per call because a Caser is not safe for concurrent use.
func caseFold(value string) string {
	return cases.Fold().String(value)
}

func splitNonEmpty(value string, pattern *regexp.Regexp) []string {
	var out []string
	for _, part := range pattern.Split(value, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitTitleArtist splits in two phases. Phase one uses a narrower delimiter set so the title stays intact;
// every fragment after the first is then split again as a list of artists.
// Bracketed groups without a credit token are lifted out first and appended to the title wherever they
// appear, so "song (feat. b) [remix]" keeps "remix" in the title and "b" as an artist.
func splitTitleArtist(value string) titleSplit {
	var extras []string
	value = reBracketGroup.ReplaceAllStringFunc(value, func(group string) string {
		inner := group[1 : len(group)-1]
		if reBracketCredit.MatchString(inner) {
			return group
		}
		if inner = strings.TrimSpace(inner); inner != "" {
			extras = append(extras, inner)
		}
		return " "
	})

	phase1 := splitNonEmpty(value, reTitleArtist)
	if len(phase1) == 0 {
		return titleSplit{title: strings.Join(extras, " ")}
	}

	var artists []string
	for _, fragment := range phase1[1:] {
		artists = append(artists, splitNonEmpty(fragment, reFeaturedArtist)...)
	}
	title := strings.Join(append([]string{phase1[0]}, extras...), " ")
	return titleSplit{title: title, artists: artists}
}

func splitArtist(value string) []string {
	return splitNonEmpty(value, reSplitArtists)
}

func punctuation(value string) string {
	removed := rePunctRemove.ReplaceAllString(value, "")
	return strings.TrimSpace(rePunctReplace.ReplaceAllString(removed, " "))
}

// stripTitleSuffix removes at most one release-variant suffix.
func stripTitleSuffix(value string) string {
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(value, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(value, suffix))
		}
	}
	return value
}

// fixSpelling applies every correction in turn, each to the output of the previous one.
func fixSpelling(value string) string {
	result := value
	for _, s := range spellings {
		if strings.Contains(result, s.check) {
			result = s.re.ReplaceAllString(result, s.repl)
		}
	}
	return result
}

func nonASCII(r rune) bool { return r > unicode.MaxASCII }

// asciiFold decomposes to NFKD and drops every rune outside ASCII, so "é" becomes "e" and "日本" disappears.
func asciiFold(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(nonASCII)))
	out, _, err := transform.String(t, value)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if nonASCII(r) {
				return -1
			}
			return r
		}, norm.NFKD.String(value))
	}
	return out
}

// subset reports whether every element of a is present in b.
func subset(a, b []string) bool {
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}
