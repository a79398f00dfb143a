// Package cart holds the signed-in user's shopping cart.
//
// The cart is never edited locally. Every operation sends one request and
// replaces the whole snapshot with the server's answer, and ItemsCount is
// the server's numOfCartItems rather than a sum of line quantities, so
// coupons and pricing rules stay server-side.
//
// The store follows a session: it fetches when a token appears and empties
// itself as soon as the token goes away, including through
// events.Invalidated when the API rejected the token. Responses that were in
// flight when the session ended are discarded.
//
// Overlapping mutations follow the configured state.Ordering. The default,
// LastResponseWins, keeps whichever response arrives last, so rapid quantity
// changes can briefly show an older count. LatestRequestWins drops responses
// overtaken by a newer request.
package cart
