package parser

import "strings"

// reservedWords lists the ECMAScript reserved words. Datalog variables
// become host-language locals with the same name in the compiled output,
// so none of these may bind a variable. Using one as a relation or field
// name is fine: those only ever appear as property names.
var reservedWords = map[string]bool{
	"break": true, "do": true, "in": true, "typeof": true,
	"case": true, "else": true, "instanceof": true, "var": true,
	"catch": true, "export": true, "new": true, "void": true,
	"class": true, "extends": true, "return": true, "while": true,
	"const": true, "finally": true, "super": true, "with": true,
	"continue": true, "for": true, "switch": true, "yield": true,
	"debugger": true, "function": true, "this": true, "default": true,
	"if": true, "throw": true, "delete": true, "import": true,
	"try": true, "enum": true, "await": true, "implements": true,
	"package": true, "protected": true, "interface": true,
	"private": true, "public": true, "null": true,
	"true": true, "false": true, "let": true,
}

// internalPrefix is reserved for names the code generator synthesizes.
const internalPrefix = "__percival"

// isReservedWord reports whether name cannot bind a variable.
func isReservedWord(name string) bool {
	return reservedWords[name] || strings.HasPrefix(name, internalPrefix)
}
