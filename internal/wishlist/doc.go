// Package wishlist holds the signed-in user's saved products.
//
// Add and Remove trust nothing in the mutation response beyond success: both
// refetch the full list afterwards. IsMember answers from an id set rebuilt
// whenever the list is replaced. Session gating matches package cart.
package wishlist
