/*
Package scheduler runs cancellable deferred work keyed by session.

The engine uses it for the timed parts of a workflow: streaming reveal frames
and the auto-advance timer of steps that need no approval. Each session has at
most one pending task, stamped with the session generation it was computed
for. Scheduling a newer generation stops the previous task; a task for an
older generation than the pending one is refused.
*/
package scheduler
