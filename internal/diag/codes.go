package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexBadNumber          Code = 1004
	LexUnterminatedString Code = 1002

	// Syntax
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynUnclosedParen    Code = 2006
	SynUnclosedBrace    Code = 2007
	SynExpectSemicolon  Code = 2012
	SynExpectIdentifier Code = 2102
	SynExpectType       Code = 2201
	SynExpectExpression Code = 2202
	SynVariadicNotLast  Code = 2203
	SynBadModifier      Code = 2204

	// Semantic
	SemaInfo                   Code = 3000
	SemaTypeMismatch           Code = 3015
	SemaUnresolvedSymbol       Code = 3020
	SemaNoOverload             Code = 3046
	SemaAmbiguousOverload      Code = 3047
	SemaRedefinition           Code = 3201
	SemaStrayReceiver          Code = 3202
	SemaDuplicateParameter     Code = 3203
	SemaReturnTypeMismatch     Code = 3204
	SemaUnrecognizedDirective  Code = 3205
	SemaUnknownType            Code = 3206
	SemaComptimeOnlyCall       Code = 3207
	SemaInstantiationDepth     Code = 3208
	SemaLoopControlOutsideLoop Code = 3209
	SemaComptimeRunFailed      Code = 3210
	SemaNotCallable            Code = 3211
	SemaHookFailed             Code = 3212
	SemaInvalidOperands        Code = 3213

	// IO
	IOLoadFileError Code = 4001

	// Project
	ProjInfo            Code = 5000
	ProjInvalidManifest Code = 5001
	ProjMissingSources  Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	LexInfo:                    "Lexical information",
	LexUnknownChar:             "Unknown character",
	LexBadNumber:               "Bad number literal",
	LexUnterminatedString:      "Unterminated string",
	SynInfo:                    "Syntax information",
	SynUnexpectedToken:         "Unexpected token",
	SynUnclosedParen:           "Unclosed parenthesis",
	SynUnclosedBrace:           "Unclosed brace",
	SynExpectSemicolon:         "Expected semicolon",
	SynExpectIdentifier:        "Expected identifier",
	SynExpectType:              "Expected type",
	SynExpectExpression:        "Expected expression",
	SynVariadicNotLast:         "Untyped parameter must be last",
	SynBadModifier:             "Modifier not allowed here",
	SemaInfo:                   "Semantic information",
	SemaTypeMismatch:           "Type mismatch",
	SemaUnresolvedSymbol:       "Unresolved symbol",
	SemaNoOverload:             "No matching overload",
	SemaAmbiguousOverload:      "Ambiguous overload",
	SemaRedefinition:           "Function redefinition",
	SemaStrayReceiver:          "Receiver parameter outside of a receiver block",
	SemaDuplicateParameter:     "Duplicate parameter",
	SemaReturnTypeMismatch:     "Return type mismatch",
	SemaUnrecognizedDirective:  "Unrecognized compiler directive",
	SemaUnknownType:            "Unknown type",
	SemaComptimeOnlyCall:       "Compile-time function called at runtime",
	SemaInstantiationDepth:     "Instantiation depth exceeded",
	SemaLoopControlOutsideLoop: "Loop control outside of a loop",
	SemaComptimeRunFailed:      "Compile-time execution failed",
	SemaNotCallable:            "Value is not callable",
	SemaHookFailed:             "Declaration hook failed",
	SemaInvalidOperands:        "Invalid operands",
	IOLoadFileError:            "I/O load file error",
	ProjInfo:                   "Project information",
	ProjInvalidManifest:        "Invalid project manifest",
	ProjMissingSources:         "No sources to build",
	ObsInfo:                    "Observability information",
	ObsTimings:                 "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
