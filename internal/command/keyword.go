package command

type keyword int

const (
	keywordNone keyword = iota
	keywordCreate
	keywordDrop
	keywordProperty
	keywordUnsafe
	keywordMandatory
	keywordReadonly
	keywordNotNull
	keywordMin
	keywordMax
	keywordDefault
	keywordCollate
	keywordRegex
)

var keywords = map[string]keyword{
	"CREATE":    keywordCreate,
	"DROP":      keywordDrop,
	"PROPERTY":  keywordProperty,
	"UNSAFE":    keywordUnsafe,
	"MANDATORY": keywordMandatory,
	"READONLY":  keywordReadonly,
	"NOTNULL":   keywordNotNull,
	"MIN":       keywordMin,
	"MAX":       keywordMax,
	"DEFAULT":   keywordDefault,
	"COLLATE":   keywordCollate,
	"REGEX":     keywordRegex,
}

// Return the keyword spelled by the given word, in any case.
func lookupKeyword(word string) keyword {
	return keywords[upperASCII(word)]
}

func (k keyword) String() string {
	for name, kw := range keywords {
		if kw == k {
			return name
		}
	}
	return ""
}
