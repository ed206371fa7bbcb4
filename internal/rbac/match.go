package rbac

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Wildcard holds the character that expands to any run of characters
// inside a grant requirement.
const Wildcard = "*"

const patternCacheSize = 256

// patternCache keeps compiled wildcard expressions keyed by pattern string.
// Compilation is deterministic, so sharing across requests is safe.
var patternCache, _ = lru.New[string, *regexp.Regexp](patternCacheSize)

// MatchPattern reports whether grantID satisfies pattern. Every character of
// the pattern is literal except `*`, which matches zero or more arbitrary
// characters. The comparison is a case-sensitive full-string match: `users:*`
// matches `users:list` and `users:` but never `admin:list`.
func MatchPattern(pattern, grantID string) bool {
	if !strings.Contains(pattern, Wildcard) {
		return pattern == grantID
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(grantID)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Get(pattern); ok {
		return re, nil
	}

	segments := strings.Split(pattern, Wildcard)
	quoted := make([]string, len(segments))
	for i, segment := range segments {
		quoted[i] = regexp.QuoteMeta(segment)
	}
	expr := "^" + strings.Join(quoted, ".*") + "$"

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Add(pattern, re)
	return re, nil
}
