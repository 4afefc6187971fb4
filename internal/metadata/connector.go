package metadata

import "encoding/json"

// ReadWriteURLs splits a connector's query traffic from its mutation traffic.
type ReadWriteURLs struct {
	Read  string
	Write string
}

// ConnectorURL is either a single URL for both queries and mutations, or a
// read/write split.
type ConnectorURL struct {
	Single    string
	ReadWrite *ReadWriteURLs
}

// URLFor picks the connector URL for the given operation kind.
func (u ConnectorURL) URLFor(isMutation bool) string {
	if u.ReadWrite != nil {
		if isMutation {
			return u.ReadWrite.Write
		}
		return u.ReadWrite.Read
	}
	return u.Single
}

// HeaderValue is a request header sent to the connector, possibly carrying
// a secret that should never be logged verbatim.
type HeaderValue struct {
	Value  string
	Secret bool
}

// CapabilitiesV1 is the pre-v2 capabilities shape: a flat set of booleans.
type CapabilitiesV1 struct {
	QueryVariables bool
	Relationships  bool
}

// CapabilitiesV2 groups capabilities under query/mutation namespaces, as the
// original Rust `open_dds::data_connector::v2` schema does.
type CapabilitiesV2 struct {
	Query struct {
		Variables     bool
		Relationships bool
	}
	Mutation struct {
		Explain bool
	}
}

// Capabilities is the connector capability set normalized from either
// CapabilitiesV1 or CapabilitiesV2, consumed by the resolver to derive
// RelationshipCapabilities.
type Capabilities struct {
	QueryVariables bool
	Relationships  bool
}

func NormalizeCapabilitiesV1(c *CapabilitiesV1) Capabilities {
	if c == nil {
		return Capabilities{}
	}
	return Capabilities{QueryVariables: c.QueryVariables, Relationships: c.Relationships}
}

func NormalizeCapabilitiesV2(c *CapabilitiesV2) Capabilities {
	if c == nil {
		return Capabilities{}
	}
	return Capabilities{QueryVariables: c.Query.Variables, Relationships: c.Query.Relationships}
}

// DataConnector describes one downstream NDC-speaking service.
type DataConnector struct {
	Name           QualifiedName
	URL            ConnectorURL
	Headers        map[string]HeaderValue
	CapabilitiesV1 *CapabilitiesV1
	CapabilitiesV2 *CapabilitiesV2
	// Schema is the connector's NDC schema blob, opaque to the resolver;
	// retained for forwarding to tooling that needs it (not consulted by
	// THE CORE, which trusts the declared type/argument mappings instead).
	Schema json.RawMessage
}

// Capabilities normalizes whichever capability version is present. When a
// connector declares both, CapabilitiesV2 wins; the resolver does not
// reject such a connector.
func (d *DataConnector) Capabilities() Capabilities {
	if d.CapabilitiesV2 != nil {
		return NormalizeCapabilitiesV2(d.CapabilitiesV2)
	}
	return NormalizeCapabilitiesV1(d.CapabilitiesV1)
}
