package unexport

import (
	"github.com/jward/unexport/internal/ast"
	"github.com/jward/unexport/internal/parser"
	"github.com/jward/unexport/internal/store"
)

// Public type aliases for internal types used in the Engine and transform
// API. These are Go type aliases (=), so no conversion is needed.

type Store = store.Store
type Module = ast.Module
type Language = parser.Language

const (
	JavaScript = parser.JavaScript
	TypeScript = parser.TypeScript
	TSX        = parser.TSX
)

// LanguageForFile detects the language from a file extension.
func LanguageForFile(path string) (Language, bool) {
	return parser.LanguageForFile(path)
}

// ParseLanguage maps a language name ("javascript", "typescript", "tsx")
// to a Language.
func ParseLanguage(name string) (Language, bool) {
	return parser.ParseLanguage(name)
}
