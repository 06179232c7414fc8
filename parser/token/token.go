// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location
}

// End returns the location just beyond the last rune of tok.
func (tok *Token) End() *Location {
	return tok.Source.Advance(tok.Text)
}

type Type uint

// Type constants used by the lexer and parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	COMMENT

	// Layout
	NEWLINE
	INDENT
	DEDENT

	// Atomic expressions & literals
	NAME
	INT
	FLOAT
	STRING

	// Delimiters
	PAREN_L
	PAREN_R
	BRACK_L
	BRACK_R
	BRACE_L
	BRACE_R
	COMMA
	COLON
	SEMICOLON
	DOT
	AT
	ARROW
	ELLIPSIS
	COLONEQ

	// Operators
	PLUS
	MINUS
	STAR
	STARSTAR
	SLASH
	SLASHSLASH
	PERCENT
	AMP
	PIPE
	CARET
	TILDE
	LTLT
	GTGT
	LT
	GT
	LE
	GE
	EQL
	NEQ

	// Assignment operators; ASSIGN must stay first and XOR_EQ last.
	ASSIGN
	PLUS_EQ
	MINUS_EQ
	STAR_EQ
	SLASH_EQ
	SLASHSLASH_EQ
	PERCENT_EQ
	STARSTAR_EQ
	AMP_EQ
	PIPE_EQ
	LTLT_EQ
	GTGT_EQ
	XOR_EQ

	// Keywords; AND must stay first and YIELD last.
	AND
	AS
	ASSERT
	ASYNC
	AWAIT
	BREAK
	CLASS
	CONTINUE
	DEF
	DEL
	ELIF
	ELSE
	EXCEPT
	FALSE
	FINALLY
	FOR
	FROM
	GLOBAL
	IF
	IMPORT
	IN
	IS
	LAMBDA
	NONE
	NONLOCAL
	NOT
	OR
	PASS
	RAISE
	RETURN
	TRUE
	TRY
	WHILE
	WITH
	YIELD

	numTokenTypes
)

var typeStrings = [numTokenTypes]string{
	INVALID:       "invalid",
	ERROR:         "error",
	EOF:           "EOF",
	COMMENT:       "#",
	NEWLINE:       "newline",
	INDENT:        "indent",
	DEDENT:        "dedent",
	NAME:          "name",
	INT:           "int",
	FLOAT:         "float",
	STRING:        "string",
	PAREN_L:       "(",
	PAREN_R:       ")",
	BRACK_L:       "[",
	BRACK_R:       "]",
	BRACE_L:       "{",
	BRACE_R:       "}",
	COMMA:         ",",
	COLON:         ":",
	SEMICOLON:     ";",
	DOT:           ".",
	AT:            "@",
	ARROW:         "->",
	ELLIPSIS:      "...",
	COLONEQ:       ":=",
	PLUS:          "+",
	MINUS:         "-",
	STAR:          "*",
	STARSTAR:      "**",
	SLASH:         "/",
	SLASHSLASH:    "//",
	PERCENT:       "%",
	AMP:           "&",
	PIPE:          "|",
	CARET:         "^",
	TILDE:         "~",
	LTLT:          "<<",
	GTGT:          ">>",
	LT:            "<",
	GT:            ">",
	LE:            "<=",
	GE:            ">=",
	EQL:           "==",
	NEQ:           "!=",
	ASSIGN:        "=",
	PLUS_EQ:       "+=",
	MINUS_EQ:      "-=",
	STAR_EQ:       "*=",
	SLASH_EQ:      "/=",
	SLASHSLASH_EQ: "//=",
	PERCENT_EQ:    "%=",
	STARSTAR_EQ:   "**=",
	AMP_EQ:        "&=",
	PIPE_EQ:       "|=",
	LTLT_EQ:       "<<=",
	GTGT_EQ:       ">>=",
	XOR_EQ:        "^=",
	AND:           "and",
	AS:            "as",
	ASSERT:        "assert",
	ASYNC:         "async",
	AWAIT:         "await",
	BREAK:         "break",
	CLASS:         "class",
	CONTINUE:      "continue",
	DEF:           "def",
	DEL:           "del",
	ELIF:          "elif",
	ELSE:          "else",
	EXCEPT:        "except",
	FALSE:         "False",
	FINALLY:       "finally",
	FOR:           "for",
	FROM:          "from",
	GLOBAL:        "global",
	IF:            "if",
	IMPORT:        "import",
	IN:            "in",
	IS:            "is",
	LAMBDA:        "lambda",
	NONE:          "None",
	NONLOCAL:      "nonlocal",
	NOT:           "not",
	OR:            "or",
	PASS:          "pass",
	RAISE:         "raise",
	RETURN:        "return",
	TRUE:          "True",
	TRY:           "try",
	WHILE:         "while",
	WITH:          "with",
	YIELD:         "yield",
}

func (typ Type) String() string {
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsKeyword reports whether typ is a reserved word.
func (typ Type) IsKeyword() bool {
	return AND <= typ && typ <= YIELD
}

// IsAssignOp reports whether typ is "=" or one of the augmented assignment
// operators.
func (typ Type) IsAssignOp() bool {
	return ASSIGN <= typ && typ <= XOR_EQ
}

var keywords map[string]Type

func init() {
	keywords = make(map[string]Type, YIELD-AND+1)
	for typ := AND; typ <= YIELD; typ++ {
		keywords[typeStrings[typ]] = typ
	}
}

// Keyword returns the keyword type for word, if word is reserved.
func Keyword(word string) (Type, bool) {
	typ, ok := keywords[word]
	return typ, ok
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int    // byte offset from the start of the source
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number, in runes (starting at 1 when tracked)
}

// Advance returns the location reached after scanning text from loc.  Text
// is assumed not to span lines unless it contains newline characters.
func (loc *Location) Advance(text string) *Location {
	end := *loc
	end.Pos += len(text)
	for _, c := range text {
		if c == '\n' {
			end.Line++
			end.Col = 1
			continue
		}
		end.Col++
	}
	return &end
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
