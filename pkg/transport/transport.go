package transport

import "context"

// SeedClient performs the get_service_nodes call against one seed endpoint
// and returns the decoded, not yet validated, JSON body. Implementations must
// honour ctx cancellation and deadlines.
type SeedClient interface {
    GetServiceNodes(ctx context.Context, seedURL string) (any, error)
}
