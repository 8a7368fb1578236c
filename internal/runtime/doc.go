// Package runtime drives a running conversation over an assembled dialog tree.
//
// The Interpreter owns the Session and the active stack. Each turn runs the
// matched entry's pre-action, resolves its slots, emits one of its responses,
// runs its action, then either jumps, descends into a nested dialog or waits
// for the next utterance.
package runtime
