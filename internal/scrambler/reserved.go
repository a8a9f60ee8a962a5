package scrambler

import "strings"

// ScrambleType defines the category of identifier being scrambled.
type ScrambleType string

const (
	TypeVariable ScrambleType = "variable"
	TypeFunction ScrambleType = "function"
	TypeClass    ScrambleType = "class"
	TypeAlias    ScrambleType = "alias"  // import aliases introduced by dynamic import rewriting
	TypeString   ScrambleType = "string" // generated names for hoisted string helper functions
)

// --- Reserved Python Keywords ---
// Renaming any of these would change program meaning or break parsing.
var reservedKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	// Soft keywords (match/case/type) renamed freely in most positions, but
	// keeping them is the conservative choice for a lexical rewriter.
	"match": true, "case": true, "type": true,
}

// --- Reserved Builtin Functions and Types ---
var reservedBuiltins = map[string]bool{
	"abs": true, "aiter": true, "all": true, "anext": true, "any": true,
	"ascii": true, "bin": true, "bool": true, "bytearray": true, "bytes": true,
	"callable": true, "chr": true, "classmethod": true, "compile": true,
	"complex": true, "delattr": true, "dict": true, "dir": true, "divmod": true,
	"enumerate": true, "eval": true, "exec": true, "filter": true, "float": true,
	"format": true, "frozenset": true, "getattr": true, "globals": true,
	"hasattr": true, "hash": true, "help": true, "hex": true, "id": true,
	"input": true, "int": true, "isinstance": true, "issubclass": true,
	"iter": true, "len": true, "list": true, "locals": true, "map": true,
	"max": true, "memoryview": true, "min": true, "next": true, "object": true,
	"oct": true, "open": true, "ord": true, "pow": true, "print": true,
	"property": true, "range": true, "repr": true, "reversed": true,
	"round": true, "set": true, "setattr": true, "slice": true, "sorted": true,
	"staticmethod": true, "str": true, "sum": true, "super": true,
	"tuple": true, "vars": true, "zip": true, "__import__": true,
	"Exception": true, "BaseException": true, "ValueError": true,
	"TypeError": true, "KeyError": true, "IndexError": true,
	"AttributeError": true, "RuntimeError": true, "StopIteration": true,
	"NotImplementedError": true, "OSError": true, "IOError": true,
	"ImportError": true, "NameError": true, "ZeroDivisionError": true,
	"ArithmeticError": true, "AssertionError": true, "SystemExit": true,
	"KeyboardInterrupt": true, "FileNotFoundError": true,
}

// --- Reserved Method and Attribute Names ---
// A lexical rewriter cannot tell obj.get from a local named get, so common
// builtin method names are never used as rename sources or targets.
var reservedMethods = map[string]bool{
	"items": true, "keys": true, "values": true, "get": true, "pop": true,
	"append": true, "extend": true, "insert": true, "remove": true,
	"clear": true, "copy": true, "update": true, "index": true, "count": true,
	"sort": true, "reverse": true, "join": true, "split": true, "strip": true,
	"replace": true, "upper": true, "lower": true, "startswith": true,
	"endswith": true, "find": true, "rfind": true, "isdigit": true,
	"isalpha": true, "isalnum": true, "isspace": true, "encode": true,
	"decode": true, "read": true, "write": true, "close": true, "seek": true,
	"tell": true, "flush": true, "readline": true, "readlines": true,
	"writelines": true, "add": true, "discard": true,
}

// isReserved checks if a name is reserved for a given scramble type.
// Python identifiers are case-sensitive throughout, so no folding happens.
func isReserved(name string, sType ScrambleType) bool {
	if reservedKeywords[name] || reservedBuiltins[name] {
		return true
	}
	// Dunder names carry runtime protocol meaning (__init__, __name__, ...).
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	switch sType {
	case TypeVariable, TypeFunction, TypeClass:
		return reservedMethods[name]
	default:
		return false
	}
}

// All known scramble types.
var AllScrambleTypes = []ScrambleType{
	TypeVariable,
	TypeFunction,
	TypeClass,
	TypeAlias,
	TypeString,
}

// ParseScrambleType converts a string identifier to its corresponding
// ScrambleType constant. Returns an error if the type string is invalid.
func ParseScrambleType(typeStr string) (ScrambleType, error) {
	lowerType := strings.ToLower(strings.TrimSpace(typeStr))
	for _, sType := range AllScrambleTypes {
		if string(sType) == lowerType {
			return sType, nil
		}
	}
	return "", errInvalidType(typeStr)
}
