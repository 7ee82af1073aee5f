package query

import (
	"regexp"
	"strings"
)

var (
	tagRe = regexp.MustCompile(`(?i)tag:([a-z0-9_-]+)`)

	// Trailing "in <words>" clause, letters and spaces only.
	locationTrailingRe = regexp.MustCompile(`\bin\s+([\p{L}\s]+)$`)
	// "in/at <words>" anywhere, stopping at a date phrase or a tag: clause.
	locationInlineRe = regexp.MustCompile(`\b(?:in|at)\s+([\p{L}0-9 ]+?)(?:\s+(?:today|tomorrow|this week|next week|on|tag:)|$)`)
)

type keywordSet struct {
	value    string
	keywords []string
}

// Order matters: the first category with a hit wins. Keywords match as
// substrings, so a short synonym can fire inside an unrelated word
// ("sport" in "transport", "past" in "pasta"). Avoid adding ones that do.
var categoryKeywords = []keywordSet{
	{"technical", []string{"technical", "tech", "technology", "coding", "programming", "hackathon", "software", "developer", "robotics", "công nghệ", "kỹ thuật"}},
	{"cultural", []string{"cultural", "culture", "music", "concert", "dancing", "festival", "exhibition", "painting", "văn hóa", "âm nhạc"}},
	{"sport", []string{"sport", "football", "soccer", "basketball", "volleyball", "badminton", "marathon", "tournament", "thể thao", "bóng đá"}},
	{"academic", []string{"academic", "lecture", "seminar", "research", "thesis", "study", "học thuật", "hội thảo"}},
	{"career", []string{"career", "job", "internship", "recruitment", "hiring", "employer", "resume", "việc làm", "tuyển dụng"}},
}

var statusKeywords = []keywordSet{
	{"upcoming", []string{"upcoming", "coming up", "coming soon", "future", "sắp tới", "sắp diễn ra"}},
	{"ongoing", []string{"ongoing", "happening now", "right now", "in progress", "đang diễn ra"}},
	{"past", []string{"past", "previous", "finished", "already happened", "đã qua", "đã diễn ra", "đã kết thúc"}},
}

// ExtractTag returns the lowercased value of a "tag:xyz" clause, or "".
func ExtractTag(q string) string {
	m := tagRe.FindStringSubmatch(q)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// ExtractLocation returns the place named by an "in ..." or "at ..." clause,
// or "". A trailing clause is taken literally, so "events in spring" yields
// "spring".
func ExtractLocation(q string) string {
	q = strings.TrimRight(strings.TrimSpace(q), "?!.,")
	if m := locationTrailingRe.FindStringSubmatch(q); m != nil {
		if loc := cleanPlace(trimDatePhrase(strings.TrimSpace(m[1]))); loc != "" {
			return loc
		}
	}
	if m := locationInlineRe.FindStringSubmatch(q); m != nil {
		return cleanPlace(strings.TrimSpace(m[1]))
	}
	return ""
}

// cleanPlace drops a leading article and rejects captures that are not
// places: the rest of a status phrase ("in progress") or an event word
// ("look at events").
func cleanPlace(loc string) string {
	loc = strings.TrimSpace(strings.TrimPrefix(loc, "the "))
	if loc == "" {
		return ""
	}
	for _, set := range statusKeywords {
		for _, kw := range set.keywords {
			if kw == "in "+loc || kw == "at "+loc {
				return ""
			}
		}
	}
	for _, kw := range eventKeywords {
		if loc == kw || loc == kw+"s" {
			return ""
		}
	}
	return loc
}

// ExtractCategory returns one of technical, cultural, sport, academic,
// career, or "".
func ExtractCategory(q string) string {
	return firstKeywordHit(q, categoryKeywords)
}

// ExtractStatus returns upcoming, ongoing, past, or "".
func ExtractStatus(q string) string {
	return firstKeywordHit(q, statusKeywords)
}

func firstKeywordHit(q string, sets []keywordSet) string {
	for _, set := range sets {
		for _, kw := range set.keywords {
			if strings.Contains(q, kw) {
				return set.value
			}
		}
	}
	return ""
}

// trimDatePhrase drops a relative date phrase trailing a captured place, so
// "hall b this week" becomes "hall b".
func trimDatePhrase(loc string) string {
	for _, tok := range relativeTokens {
		if strings.HasSuffix(loc, " "+tok) {
			return strings.TrimSpace(strings.TrimSuffix(loc, tok))
		}
	}
	return loc
}
