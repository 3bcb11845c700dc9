// Package core provides the business logic of the eUICC profile manager.
//
// The package holds all domain rules independent of the HTTP layer and of
// the concrete record store. Handlers, tools and tests use it through
// [Service], constructed once at start-up over a [store.Store].
//
// # Entities
//
//   - [Profile]: one carrier configuration. The ICCID is unique across all
//     profiles; status is "enabled" or "disabled"; several profiles may be
//     enabled at once.
//   - [Certificate]: an X.509 certificate with caller-supplied metadata.
//     Stored fields are never re-derived from the PEM data.
//
// # Bulk Import
//
// Profiles can be imported from a JSON array ([Service.ImportJSON]), a CSV
// stream ([Service.ImportCSV]) or free text ([ScanText] followed by
// [Service.ImportText]). Every path funnels raw fields through
// [NormalizeProfile] with its own [Defaults] table and applies one merge
// rule: records without an ICCID and records whose ICCID already exists are
// skipped and reported, everything else is inserted.
//
// Concurrent imports are bounded by an [ImportLimiter].
//
// # Uniqueness
//
// Services look up the ICCID before inserting, and the store also enforces
// a unique index. Two racing creates therefore cannot both succeed; the
// loser sees a Conflict (or an "Already exists" skip during imports).
//
// # Error Handling
//
// Failures are returned as [*Error] values classified by [Kind]:
//
//   - KindNotFound: unknown profile or certificate id (PRF001, CRT001)
//   - KindConflict: duplicate ICCID (PRF002)
//   - KindBadRequest: missing fields, empty or undecodable PEM, malformed
//     import payloads (PRF003, CRT002-CRT004, IMP001)
//   - KindUnavailable: no free import slot (IMP002)
//
// Anything else is a store or transport fault; [MapError] turns those into
// support codes (STO, FILE, REQ ranges) for the response body.
package core
