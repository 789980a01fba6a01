// Package mention builds Telegram message payloads that carry invisible
// per-user mentions.
//
// A mention is rendered by inserting a run of zero-width marker characters
// into the message text and attaching one text_mention entity per recipient,
// each covering exactly one marker. The user sees the message unchanged; the
// client still resolves every marker into a clickable user reference.
//
// The package is pure computation: no I/O, no shared state, safe for
// concurrent callers. Offsets and lengths follow the Bot API convention and
// are counted in UTF-16 code units, not bytes or runes.
//
// Entry point is BuildPayloads, which splits a recipient list into one or
// more payloads honoring both the per-message mention cap and the 4096
// code-unit text limit.
package mention
