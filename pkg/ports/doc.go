/*
Package ports defines the driven-side interfaces of the intake engine.

Adapters implement these contracts: session persistence, distributed
locking, the language-understanding and composition collaborators, and
the durable record store. The package also ships reusable contract test
suites so every adapter is verified against the same expectations.
*/
package ports
