// Package orchestrator runs one collection pass over a post.
//
// Stages run strictly one after another, in category order: reactions,
// comments, reposts. Every stage feeds the same identity store. Between
// stages the page is cleared of overlays by a bounded routine that always
// terminates: visible close controls are clicked first, then a few cancel
// keystrokes are sent, and whatever remains is detached.
//
// Finalize runs even when the context is cancelled. It waits for the page to
// settle, harvests each category one last time, builds one row per person,
// applies the optional row filter, truncates at the global cap and hands the
// batch to the exporter.
package orchestrator
