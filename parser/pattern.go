package parser

import (
	"regexp"
	"strings"
)

// Wildcard is a case insensitive pattern where * matches any run of
// characters (including path separators) and ? matches exactly one
// character. The whole subject must match.
type Wildcard struct {
	pattern string
	re      *regexp.Regexp
}

func NewWildcard(pattern string) *Wildcard {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, c := range pattern {
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")

	return &Wildcard{
		pattern: pattern,
		// Every metacharacter is quoted so this can not fail.
		re: regexp.MustCompile(b.String()),
	}
}

func (self *Wildcard) String() string {
	return self.pattern
}

func (self *Wildcard) Match(subject string) bool {
	return self.re.MatchString(subject)
}

// CompileGrep compiles a case insensitive regular expression which
// must match the entire subject.
func CompileGrep(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)^(?:" + expr + ")$")
}
