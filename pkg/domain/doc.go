/*
Package domain contains the core domain models for the intake engine.

It defines the fundamental entities of the workflow, such as the Session,
the field Schema, and the events and steps the router operates on. This
package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Session: The durable snapshot of one intake conversation (status,
    profile, transcript, attempt counters, generation record).
  - Schema: The ordered declaration of fields to collect, each with a
    pure validator.
  - Event: What the boundary feeds into the router each turn.
  - Step: The enumerated unit of work the router selects.
  - ActionRequest: A structural representation of what the host should
    render (a message, a request for input).
*/
package domain
