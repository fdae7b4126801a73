// Package cli implements the interactive gqlauth shell.
//
// The shell signs a user in against the gqlauth gRPC service, keeps the
// session in a local SQLite file and exposes the token lifecycle as
// commands: login, whoami, refresh, logout, logout-all and status.
package cli
