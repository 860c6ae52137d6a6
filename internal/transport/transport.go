// Package transport defines the narrow abstract capability a Host
// pipeline needs from a managed-node connection (spec §9):
// connect/command/line_in_file/script/upload/download. Keeping this as
// an interface lets the engine be tested against fakes and lets
// alternative transports be swapped in without touching the pipeline
// or runner. Grounded on original_source/src/run_plan/client.rs's
// ManageClient/ClientInterface traits.
package transport

import "context"

// Result carries one client-executor invocation's captured output and
// exit status (spec §4.4, §4.5).
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Client is a connected session to one managed host.
type Client interface {
	// Command sends a Command action's canonical text (and optional
	// signature) to the remote client executor.
	Command(ctx context.Context, actionYAML, signature []byte) (Result, error)

	// LineInFile sends a LineInFile action's canonical text (and
	// optional signature) to the remote client executor.
	LineInFile(ctx context.Context, actionYAML, signature []byte) (Result, error)

	// Script sends a Script action's canonical text (and optional
	// signature) to the remote client executor.
	Script(ctx context.Context, actionYAML, signature []byte) (Result, error)

	// Upload performs the two-phase upload dance (spec §4.5): delete any
	// stale artifact at stagingPath, stream from's bytes to stagingPath
	// over the transport, then invoke the client executor with the
	// upload action's text so it can relocate and chown/chmod the
	// staged file into place.
	Upload(ctx context.Context, from, stagingPath string, actionYAML, signature []byte) (Result, error)

	// Download performs a local-side file copy from this host's from
	// path to the control node's to path (spec §4.5, §9 Open Questions:
	// optional, no verification semantics).
	Download(ctx context.Context, from, to string) (Result, error)

	// Close releases the session (spec §4.5 Disconnecting).
	Close() error
}

// Dialer opens a Client session to a named host (spec §4.5 Dialing state).
type Dialer interface {
	Dial(ctx context.Context, host string) (Client, error)
}
