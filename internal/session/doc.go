// Package session owns the authentication token and user metadata.
//
// The token is the only fact that decides whether the user is signed in. The
// user record is decoration: it comes from the sign-in response when the API
// sends one and from the token's claims otherwise, and it may be empty.
//
// States move Unknown → Anonymous | Authenticated on the first Resolve, then
// between Anonymous and Authenticated for the life of the process. Views wait
// while Unknown rather than redirecting to the sign-in view.
//
// Two storage slots back the session (see package storage). After Start, the
// store re-reads them whenever another process changes storage or the user
// returns to the terminal, and drops the session outright on
// events.Invalidated, which the API layer raises when a token is rejected.
package session
