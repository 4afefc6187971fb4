package metadata

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vmihailenco/msgpack/v5"
)

// BaseType is either a Named type or a List of a TypeReference.
type BaseType interface {
	isBaseType()
}

// NamedType is a scalar or object type name, e.g. "String" or "User".
type NamedType string

func (NamedType) isBaseType() {}

// ListType wraps the element TypeReference of a GraphQL list type.
type ListType struct {
	Of TypeReference
}

func (ListType) isBaseType() {}

// TypeReference is a GraphQL type with a nullability flag, e.g. "[String!]!"
// is TypeReference{Underlying: ListType{Of: TypeReference{NamedType("String"), false}}, Nullable: false}.
type TypeReference struct {
	Underlying BaseType
	Nullable   bool
}

func (t TypeReference) String() string {
	s := baseTypeString(t.Underlying)
	if !t.Nullable {
		s += "!"
	}
	return s
}

// EncodeMsgpack/DecodeMsgpack round-trip a TypeReference through its wire
// string form, since Underlying is an interface msgpack's struct codec
// can't decode on its own (consumed by internal/snapshot when persisting
// raw metadata).
func (t TypeReference) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(t.String())
}

func (t *TypeReference) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	parsed, err := ParseTypeReference(s)
	if err != nil {
		return fmt.Errorf("decoding type reference: %w", err)
	}
	*t = parsed
	return nil
}

// MarshalJSON/UnmarshalJSON round-trip a TypeReference through its wire
// string form in the authoring metadata document, the same shape
// EncodeMsgpack/DecodeMsgpack use for snapshot persistence.
func (t TypeReference) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TypeReference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTypeReference(s)
	if err != nil {
		return fmt.Errorf("decoding type reference: %w", err)
	}
	*t = parsed
	return nil
}

func baseTypeString(b BaseType) string {
	switch v := b.(type) {
	case NamedType:
		return string(v)
	case ListType:
		return "[" + v.Of.String() + "]"
	default:
		return "<invalid>"
	}
}

// builtinNames are the five GraphQL inbuilt scalar names, excluded from the
// custom-name grammar per spec §3.
var builtinNames = map[string]bool{
	"ID":      true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"String":  true,
}

func IsBuiltinName(name string) bool { return builtinNames[name] }

var customNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidCustomName reports whether name is a legal custom GraphQL type name:
// matches [A-Za-z_][A-Za-z0-9_]* and is not one of the five inbuilt names.
func ValidCustomName(name string) bool {
	return customNamePattern.MatchString(name) && !IsBuiltinName(name)
}

// typeRefAST is the participle grammar for the wire syntax of a
// TypeReference: NAME ("!")? | "[" typeRefAST "]" ("!")?
type typeRefAST struct {
	List *typeRefAST `( "[" @@ "]"`
	Name string      `  | @Ident )`
	Bang bool        `@"!"?`
}

var typeRefLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[\[\]!]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var typeRefParser = participle.MustBuild[typeRefAST](
	participle.Lexer(typeRefLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseTypeReference parses the GraphQL wire syntax of a type reference,
// e.g. "String", "[String!]!", "[[Int]!]".
func ParseTypeReference(src string) (TypeReference, error) {
	ast, err := typeRefParser.ParseString("", src)
	if err != nil {
		return TypeReference{}, fmt.Errorf("parsing type reference %q: %w", src, err)
	}
	return typeRefFromAST(ast), nil
}

func typeRefFromAST(a *typeRefAST) TypeReference {
	if a.List != nil {
		return TypeReference{Underlying: ListType{Of: typeRefFromAST(a.List)}, Nullable: !a.Bang}
	}
	return TypeReference{Underlying: NamedType(a.Name), Nullable: !a.Bang}
}
