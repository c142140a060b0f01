package token

var keywords = map[string]Kind{
	"fn":       KwFn,
	"return":   KwReturn,
	"loop":     KwLoop,
	"break":    KwBreak,
	"continue": KwContinue,
	"if":       KwIf,
	"else":     KwElse,
	"ext":      KwExt,
	"type":     KwType,
	"mut":      KwMut,
	"self":     KwSelf,
	"pub":      KwPub,
	"comptime": KwComptime,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LookupKeyword returns the keyword kind for an identifier spelling.
func LookupKeyword(s string) (Kind, bool) {
	k, ok := keywords[s]
	return k, ok
}
