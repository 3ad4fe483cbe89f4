package grpcx

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/PersyLopez/sitesprintz-sub001/libs/httpx"
)

// RequestIDMetadataKey carries the request id over gRPC. Metadata keys are lowercase on the wire.
const RequestIDMetadataKey = "x-request-id"

// RequestIDFromContext reads the id stored by the server interceptor. gRPC and HTTP share the
// context key, so booking code logs the same field whichever transport served the call.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(RequestIDMetadataKey)
	if len(vals) == 0 || len(vals[0]) > httpx.MaxRequestIDLen {
		return ""
	}
	return vals[0]
}
