// Package client talks to the gqlauth gRPC service.
//
// GRPCClient keeps the current token pair in memory. Every call carries the
// JWT in the authorization metadata ("JWT <token>"); refresh calls present
// the refresh token as the gql_refreshToken cookie, the same way a browser
// would, and pick the rotated token up from the set-cookie response header.
//
// When the JWT is past its expiry, or the server answers with an expired
// credential, the unary interceptor redeems the refresh token once and
// retries the call. Callers learn about rotated tokens through OnRefresh so
// they can persist them.
//
// Errors are mapped to ErrUnauthorized, ErrRejected and ErrUnavailable,
// wrapping the server message.
package client
