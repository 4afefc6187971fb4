package metadata

// ResolveFlags gates resolver behaviors that are experimental or
// compatibility-only, mirroring `open_dds::flags` in the original source.
// Relationship predicates are a hard NotSupported error (§9) under either
// setting of AllowRelationshipPredicates; the flag only changes the error
// message, and no predicate is ever silently dropped.
type ResolveFlags struct {
	AllowRelationshipPredicates bool
}

func DefaultResolveFlags() ResolveFlags {
	return ResolveFlags{AllowRelationshipPredicates: false}
}

// Metadata is the full raw, versioned, declarative input to the resolver:
// every entity kind in one bundle, indexed in insertion order (resolution
// is deterministic, §4.1).
type Metadata struct {
	DataConnectors   []DataConnector
	ObjectTypes      []ObjectType
	ScalarTypes      []ScalarType
	Models           []Model
	Commands         []Command
	Relationships    []Relationship
	TypePermissions  []TypePermissions
	ModelPermissions []ModelPermissions
	CommandPerms     []CommandPermissions
	Flags            ResolveFlags
}
