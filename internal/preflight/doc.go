// Package preflight provides readiness checks for the catalog credential,
// the TMDB endpoint, the tool server bind address, and the directories
// filmscout writes to.
//
// The CLI "filmscout doctor" command runs RunAll and renders each Result.
// Checks never return errors; a failed check carries its explanation in
// Detail and never includes the credential itself.
package preflight
