package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GetActorIDFromContext extracts the actor ID from the gRPC metadata.
// It expects a header named "actor-id", set by the auth interceptor.
func GetActorIDFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	actorIDs := md.Get("actor-id")
	if len(actorIDs) == 0 || actorIDs[0] == "" {
		return "", status.Errorf(codes.Unauthenticated, "actor_id is not provided in metadata")
	}

	return actorIDs[0], nil
}
