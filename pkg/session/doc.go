/*
Package session implements session access orchestration.

It guarantees the per-session exclusivity the driver relies on: no two
concurrent turns may interleave mutations on the same session. Local
serialization uses reference-counted mutexes that are garbage collected
when idle; multi-replica deployments add a distributed locker.
*/
package session
