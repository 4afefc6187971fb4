package metadata

// FilterableField declares a field usable in a model's `where` input, along
// with the comparison operators the connector supports for it.
type FilterableField struct {
	Field     FieldName
	Operators []string // e.g. "_eq", "_gt", "_in"; always includes "_is_null" implicitly.
}

// OrderDirection is a Asc|Desc order_by value.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "Asc"
	OrderDesc OrderDirection = "Desc"
)

// OrderableField declares a field usable in a model's `order_by` input.
type OrderableField struct {
	Field      FieldName
	Directions []OrderDirection // subset of Asc/Desc declared for this field
}

// SelectUniqueExposure is one `select_unique` root field: a name plus the
// set of fields that together uniquely identify a row.
type SelectUniqueExposure struct {
	QueryRootField   string
	UniqueIdentifier []FieldName
}

// SelectManyExposure is the (at most one) `select_many` root field.
type SelectManyExposure struct {
	QueryRootField string
}

// ModelGraphQLExposure controls what GraphQL surface a model gets.
type ModelGraphQLExposure struct {
	SelectUniques   []SelectUniqueExposure
	SelectMany      *SelectManyExposure
	FilterTypeName  string
	OrderByTypeName string
}

// ModelSource binds a model to a connector collection plus the field and
// argument mappings used to talk to it.
type ModelSource struct {
	DataConnector   QualifiedName
	Collection      string
	FieldMapping    map[FieldName]string // GraphQL field -> connector column
	ArgumentMapping map[string]string    // model argument -> NDC argument name
}

// Model is a named collection of objects with CRUD exposure.
type Model struct {
	Name             QualifiedName
	ObjectType       QualifiedName
	Arguments        []ArgumentDefinition
	Source           *ModelSource
	FilterableFields []FilterableField
	OrderableFields  []OrderableField
	GraphQL          ModelGraphQLExposure
	GlobalIDSource   bool
}
