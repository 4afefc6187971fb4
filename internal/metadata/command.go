package metadata

// CommandSourceKind distinguishes an NDC function (read-only, Query root)
// from an NDC procedure (side-effecting, Mutation root).
type CommandSourceKind int

const (
	CommandFunction CommandSourceKind = iota
	CommandProcedure
)

func (k CommandSourceKind) String() string {
	if k == CommandProcedure {
		return "procedure"
	}
	return "function"
}

// RootFieldKind places a command's root field under Query or Mutation.
type RootFieldKind int

const (
	RootFieldQuery RootFieldKind = iota
	RootFieldMutation
)

// CommandSource binds a command to a connector function or procedure.
type CommandSource struct {
	DataConnector   QualifiedName
	Kind            CommandSourceKind
	Name            string
	ArgumentMapping map[string]string
}

// CommandGraphQLExposure names the command's single root field and which
// root object (Query or Mutation) it hangs off.
type CommandGraphQLExposure struct {
	RootFieldName string
	RootFieldKind RootFieldKind
}

// Command is a named function or procedure at the connector level.
type Command struct {
	Name       QualifiedName
	OutputType TypeReference
	Arguments  []ArgumentDefinition
	Source     *CommandSource
	GraphQL    CommandGraphQLExposure
}
