// Package subscribers resolves which parties want to hear about a listing.
//
// A Subscription is a standing interest of one subscriber in one listing. The
// relationship persists independently of the notification preference: turning
// notifications off keeps the row and only excludes it from resolution.
//
// The Store interface is the narrow contract consumed from the surrounding
// marketplace application. MemoryStore backs tests and local development;
// PostgresStore reads and writes the listing_subscriptions table through pgx.
//
// Resolver is what the notification pipeline calls. It never mutates state,
// returns an empty slice when nobody is subscribed, and wraps any store
// failure with ErrStoreUnavailable so callers can log it and move on.
package subscribers
