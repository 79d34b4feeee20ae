/*
Package passhash computes and verifies salted password records built on scrypt, and
manages the evolution of the hashing parameters used to produce them over the lifetime
of an application.

# How it works:

A random salt is generated, and a key is derived from the passphrase (plus an optional
configured pepper) with scrypt. The key, salt, and the exact work factors used are
serialized into a single self-describing text record. Because the record carries its own
parameters, it can be verified years later even after the process-wide parameters have
moved on: verification always re-derives under the record's embedded parameters, and the
current parameters only decide acceptance policy.

Parameters are resolved through one deterministic merge: documented defaults, then the
process-wide parameter set, then per-call options. The short-hand options SetN, SetR,
and SetP alias SetCost, SetBlockSize, and SetParallelism, and win when both are given.
Passing the Default sentinel to an integer option resets that field to its documented
default instead of leaving it unchanged.

Parsing runs in one of two modes. Permissive (the default) accepts any well-formed
record regardless of parameter drift, which keeps old records verifiable. Strict
requires the record's embedded parameters to exactly equal the current set, and is what
NeedsRehash uses as a probe to decide whether a record should be reissued.

# General guidelines:
  - Verify collapses every failure to false on purpose. A malformed or tampered record
    must be indistinguishable from a wrong passphrase at that boundary.
  - Call NeedsRehash after a successful Verify and reissue the record with Hash when it
    returns true. That's how parameter upgrades roll out without breaking logins.
  - The pepper never appears in a record. Keep it in application configuration so a
    database leak alone isn't enough to mount an offline attack.
  - Cost must be a power of 2 greater than 1. If you're not sure how to tune the work
    factors, keep the defaults; they're chosen for interactive logins.
  - MaxMemory is a resource guard for the process, not a security parameter. Raise it if
    legitimately large work factors are refused with ErrResourceExceeded.
  - Derivation is deliberately CPU and memory expensive. Treat Hash and Verify as
    blocking calls and run them on their own goroutine if the caller can't wait.
*/
package passhash
