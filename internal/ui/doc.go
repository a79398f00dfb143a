// Package ui provides the terminal storefront for tote.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model. Store snapshots (session, cart,
// wishlist) arrive as messages bridged from store subscriptions in Run; the
// model rereads the store when one arrives, so out-of-order deliveries cannot
// leave a stale snapshot on screen. Views never write store state: every
// change goes through a store operation run as a tea.Cmd.
//
// Read-only data (products, categories, reviews, orders, addresses) is
// fetched straight from the api.Client and held in per-view state.
//
// # Views
//
//   - "/"                 Products: paged listing, search, category and sort filters, detail with reviews
//   - "/login"            Sign in
//   - "/signup"           Create account
//   - "/forgot-password"  Reset code request, code check, new password
//   - "/cart"             Quantities, removal, coupon, clear
//   - "/wishlist"         Membership toggling and add to cart
//   - "/orders"           Order history with paid and delivered badges
//   - "/checkout"         Address choice, cash orders and hosted payment
//
// # Routing
//
// The model owns a router that implements api.Navigator, so the auth guard
// can send the user to the sign-in view when the server rejects the session.
// Protected views fall back to "/login" for anonymous sessions and the
// sign-in views fall back to "/" once signed in. While the session is still
// Unknown nothing is redirected.
//
// # Focus
//
// Run enables terminal focus reporting. Regaining focus publishes
// events.Visible, which makes the session store resync from durable storage.
//
// # Online Payment
//
// The hosted checkout link is shown and copied to the clipboard. Once the
// browser returns, the user confirms the outcome with a key or pastes the
// return address, which checkout.Service.ParseReturn turns into an outcome.
package ui
