package exec

import (
	"fmt"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

func endpointFor(md *resolve.ResolvedMetadata, connector metadata.QualifiedName, isMutation bool) (ndc.Endpoint, error) {
	dc, ok := md.DataConnectors[connector]
	if !ok {
		return ndc.Endpoint{}, fmt.Errorf("%w: unknown data connector %s", ErrInternalEngineError, connector)
	}
	return ndc.Endpoint{
		Name:    dc.Name,
		URL:     dc.URL.URLFor(isMutation),
		Headers: dc.Headers,
	}, nil
}
