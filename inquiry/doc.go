// Package inquiry implements the purchase inquiry lifecycle.
//
// An inquiry moves through draft, submitted, pending_review, responded,
// and finally accepted or rejected. The Machine type owns every status
// change: it checks the legality table and the acting party under a
// per-inquiry lock stripe before writing, so concurrent conflicting
// transitions resolve to exactly one winner and the losers receive an
// IllegalTransitionError with the state left intact.
//
// The buyer's payload is writable only while the inquiry is in draft;
// the vendor's response is recorded by the transition into responded.
package inquiry
