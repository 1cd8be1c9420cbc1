// Package debugsim is the staged simulation engine behind the BugSU debug tool.
//
// A run moves through idle → scanning → fixing → complete, with a
// probabilistic exit to error from either working phase. Nothing is really
// scanned: progress advances on periodic ticks, issues are drawn from a fixed
// catalog and repaired at random, and faults are injected with a small,
// configurable probability.
//
// The engine never starts goroutines of its own. Ticks are delivered by a
// host-provided Scheduler, and every tick body and every mutation of a
// Session must run on that host's single event loop. Each Session carries its
// own ticker handles, so any number of sessions can share one Engine.
package debugsim
