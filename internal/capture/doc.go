// Package capture obtains an OAuth authorization code through a loopback
// redirect, with a manual paste fallback.
//
// A Session owns at most one flow at a time. Prepare binds the loopback
// listeners (IPv6 and IPv4 on one port when possible) and returns the
// authorization URL; AwaitCode then waits for whichever arrives first: the
// provider redirecting the browser to the listener, or SubmitCodeManually
// with a code or redirect URL copied by the user. Later deliveries are
// dropped. Cancellation, timeouts and Shutdown always release the ports.
//
//	session := capture.NewSession(provider, capture.Options{})
//	defer session.Shutdown()
//
//	authURL, err := session.Prepare(ctx)
//	...
//	grant, err := session.AwaitCode(ctx, 0)
//	...
//	cred, err := provider.Exchange(ctx, grant)
package capture
