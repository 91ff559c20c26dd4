// Package ir holds the shared vocabulary of the vesting validator: typed
// configuration and state records, the closed rejection taxonomy, canonical
// JSON and content-addressed identities.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Amounts and time points are unsigned 64-bit integers, never floats
//   - Time points come from the host's trusted source, never the wall clock
//   - All JSON tags use snake_case
package ir
