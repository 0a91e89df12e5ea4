// Package recovery issues and validates short-lived, single-use emergency
// credentials ("recovery keys") that let a locked-out administrator bypass
// normal authentication exactly once.
//
// A Manager holds at most one credential. Keys have the form RK-XXXXXX where
// XXXXXX is six uppercase hexadecimal characters drawn from a cryptographically
// secure random source, and they expire 15 minutes after issuance.
//
// # Lifecycle
//
//	EMPTY    --Generate (mode enabled)--> ACTIVE
//	ACTIVE   --ValidateKey (expired)----> DEAD      (used, key cleared)
//	ACTIVE   --MarkAsUsed-----------------> CONSUMED  (used, key retained)
//	ACTIVE   --Invalidate-----------------> DEAD
//	ACTIVE   --Generate-------------------> ACTIVE    (previous key discarded)
//
// CONSUMED and DEAD credentials never validate again. Expiry is detected lazily
// when ValidateKey runs; there is no background timer.
//
// # Basic Usage
//
//	mgr, err := recovery.NewManager(recovery.Config{
//		Mode: config.NewModeProvider(v),
//		Sink: logging.NewEventSink(log),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	key, err := mgr.Generate()
//	if errors.Is(err, recovery.ErrRecoveryDisabled) {
//		// recovery mode is off, nothing was issued
//	}
//
//	// Later, in the login flow:
//	if mgr.ValidateKey(candidate) {
//		// finish establishing the session, then consume the key
//		mgr.MarkAsUsed()
//	}
//
// ValidateKey does not consume the key. Callers that want check-and-consume in
// one step use Authenticator, which also plugs into the api package.
//
// # Thread Safety
//
// Manager and Authenticator are safe for concurrent use. Events are delivered
// to the EventSink after the internal lock is released, and a panicking sink
// does not affect credential state.
package recovery
