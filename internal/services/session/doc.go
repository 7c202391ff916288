// Package session runs simulation sessions: many exchanges, some clean and
// some attacked, streamed as labeled records.
//
// A session is seeded once. Principal keys, pair selection, attack draws
// and every nonce derive from that seed, so two sessions built from the same
// Config emit the same records in the same order regardless of how many
// workers execute them. Planning is sequential; execution fans out to a
// worker pool in windows and results are re-emitted in plan order.
//
// A Service can be consumed once. Build a new one to replay a run.
package session
