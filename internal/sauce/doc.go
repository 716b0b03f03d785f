// Package sauce models identification matches as a tagged union over source
// kinds (generic, anime, video, manga, booru).
//
// A Result carries the fields common to every match plus variant fields that
// are meaningful only for its Kind; rendering and reconciliation switch on the
// tag rather than inspecting runtime types. Anime matches resolve their
// external catalog IDs through an explicit two-phase accessor: ResolveIDs
// performs the network fetch once, ResolvedIDs reads the cached value.
//
// Encode and Decode convert results to and from the variant-tag/header/payload
// split the cache store persists; the pair must stay lossless.
package sauce
