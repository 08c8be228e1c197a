package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Matcher is a single filter rule. Each rule applies its own invert
// flag.
type Matcher interface {
	IsMatch(record *JournalRecord) bool
}

// FilterChain accepts a record only when all rules match. An empty
// chain matches everything.
type FilterChain struct {
	rules []Matcher
}

func NewFilterChain(rules ...Matcher) *FilterChain {
	return &FilterChain{rules: append([]Matcher{}, rules...)}
}

func (self *FilterChain) Add(rule Matcher) {
	self.rules = append(self.rules, rule)
}

// Pop removes the most recently added rule.
func (self *FilterChain) Pop() {
	if len(self.rules) > 0 {
		self.rules = self.rules[:len(self.rules)-1]
	}
}

func (self *FilterChain) Len() int {
	return len(self.rules)
}

// NeedsSize is true when a rule looks at the record size, which is
// only populated when sizes are resolved.
func (self *FilterChain) NeedsSize() bool {
	for _, rule := range self.rules {
		if _, ok := rule.(*MatchSize); ok {
			return true
		}
	}
	return false
}

func (self *FilterChain) IsMatch(record *JournalRecord) bool {
	for _, rule := range self.rules {
		if !rule.IsMatch(record) {
			return false
		}
	}
	return true
}

// MatchName matches the record path against a wildcard pattern.
type MatchName struct {
	Pattern *Wildcard
	Invert  bool
}

func NewMatchName(pattern string, invert bool) *MatchName {
	return &MatchName{Pattern: NewWildcard(pattern), Invert: invert}
}

func (self *MatchName) IsMatch(record *JournalRecord) bool {
	return self.Pattern.Match(record.FullPath) != self.Invert
}

// MatchGrep matches the record path against a regular expression.
type MatchGrep struct {
	Regex  *regexp.Regexp
	Invert bool
}

func NewMatchGrep(expr string, invert bool) (*MatchGrep, error) {
	re, err := CompileGrep(expr)
	if err != nil {
		return nil, err
	}
	return &MatchGrep{Regex: re, Invert: invert}, nil
}

func (self *MatchGrep) IsMatch(record *JournalRecord) bool {
	return self.Regex.MatchString(record.FullPath) != self.Invert
}

// MatchSize compares the allocated size against a threshold. The
// size is only populated when size resolution is enabled.
type MatchSize struct {
	Size   int64
	Less   bool
	Invert bool
}

func (self *MatchSize) IsMatch(record *JournalRecord) bool {
	var result bool
	if self.Less {
		result = record.Size < self.Size
	} else {
		result = record.Size > self.Size
	}
	return result != self.Invert
}

// MatchDate compares the record timestamp against a threshold.
type MatchDate struct {
	Threshold time.Time
	Newer     bool
	Invert    bool
}

func (self *MatchDate) IsMatch(record *JournalRecord) bool {
	var result bool
	ts := record.Time()
	if self.Newer {
		result = ts.After(self.Threshold)
	} else {
		result = ts.Before(self.Threshold)
	}
	return result != self.Invert
}

type ShowFilter int

const (
	ShowAll ShowFilter = iota
	ShowDirs
	ShowFiles
)

func ParseShowFilter(value string) (ShowFilter, error) {
	switch strings.ToLower(value) {
	case "", "all":
		return ShowAll, nil
	case "d", "dir", "dirs":
		return ShowDirs, nil
	case "f", "file", "files":
		return ShowFiles, nil
	}
	return ShowAll, fmt.Errorf("Invalid show filter %q: expected all, dir or file", value)
}

// IsMatch selects directories or files by their attribute bits. It
// is applied after the FilterChain.
func (self ShowFilter) IsMatch(record *JournalRecord) bool {
	switch self {
	case ShowDirs:
		return record.IsDir()
	case ShowFiles:
		return !record.IsDir()
	}
	return true
}

// ParseFilter builds a rule from an expression:
//
//	name:PATTERN   wildcard match on the path
//	grep:REGEX     regular expression match on the path
//	size:N         size greater than N, or less than |N| if N < 0
//	mtime:DAYS     modified more than DAYS days ago, or less than
//	               |DAYS| days ago if DAYS < 0
//
// A leading ! inverts the rule.
func ParseFilter(expr string, now time.Time) (Matcher, error) {
	invert := false
	if strings.HasPrefix(expr, "!") {
		invert = true
		expr = expr[1:]
	}

	parts := strings.SplitN(expr, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("Invalid filter %q: expected kind:value", expr)
	}
	kind, value := strings.ToLower(parts[0]), parts[1]

	switch kind {
	case "name":
		return NewMatchName(value, invert), nil

	case "grep":
		rule, err := NewMatchGrep(value, invert)
		if err != nil {
			return nil, fmt.Errorf("Invalid grep filter %q: %w", value, err)
		}
		return rule, nil

	case "size":
		size, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Invalid size argument %q: %w", value, err)
		}
		if size < 0 {
			return &MatchSize{Size: -size, Less: true, Invert: invert}, nil
		}
		return &MatchSize{Size: size, Invert: invert}, nil

	case "mtime":
		days, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf(
				"Invalid modify days argument %q, expect floating point number: %w",
				value, err)
		}
		newer := days < 0
		if newer {
			days = -days
		}
		threshold := now.Add(-time.Duration(days * float64(24*time.Hour)))
		return &MatchDate{Threshold: threshold, Newer: newer, Invert: invert}, nil
	}

	return nil, fmt.Errorf("Unknown filter kind %q", kind)
}
