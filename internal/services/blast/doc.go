// Package blast turns configured mention blasts into delivery jobs.
//
// A blast is a named broadcast: a chat, a recipient list, a template, and
// optionally a cron spec. Scheduled blasts fire through a robfig/cron
// runner; any blast can also be run on demand (the -blast CLI path).
// Building the payloads is delegated to pkg/mention; sending to the
// delivery service.
package blast
