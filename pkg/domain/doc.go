/*
Package domain contains the core models of the lookahead engine.

It defines the read-only view of the rail network (Segments, Junctions and the Branches that join
them) and the Event sum type produced by a traversal. The package is kept pure and free of I/O so
that adapters (memory, Redis, HTTP) and the engine can share it without import cycles.

# Key Entities

  - Segment: a piece of track with identity, length and an optional centerline.
  - Junction: one "in" branch and two "out" branches. Its selected branch is live external state
    and is read through ports.JunctionState, never stored here.
  - Branch: a (segment, end) pair describing an attachment point.
  - Event: SegmentEntered, JunctionReached, SpeedLimit, DualSpeedLimit or Grade. Consumers match
    them exhaustively through Visitor.
*/
package domain
