/*
Package session implements editing sessions and persistence orchestration.

A session pairs a frozen original document with the live current one. The
Manager serialises every mutator of a session (local mutex plus an optional
distributed lock), so diff and merge computations always read a consistent
pair of snapshots. It also owns the in-flight guard for AI rewrites: at most
one rewrite round trip per session, completed by a single bulk replace.
*/
package session
