/*
Package ports defines the driven ports (interfaces) of the lookahead engine.

These interfaces decouple the core from the systems it reads: the network graph, the live junction
state owned by the simulation, the spatial query that finds sign labels, and the cache backend.

# Key Interfaces

  - Network: segment/junction lookup and branch resolution.
  - JunctionState: read-only access to each junction's selected branch.
  - SpatialQuery: turns a ray into raw sign-label hits.
  - AnnotationStore: per-segment annotation cache (memory, Redis).
  - GeometryStream: signals that new geometry was streamed in and caches must be dropped.
*/
package ports
