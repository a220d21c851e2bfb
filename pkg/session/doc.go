/*
Package session implements session management and persistence orchestration.

It serializes the read-modify-write cycle of each session behind a per-session
lock (optionally backed by a distributed locker for multi-replica deployments),
so concurrent decisions for one session never interleave while unrelated
sessions proceed independently.
*/
package session
