/*
Package lookahead answers the question a driver asks every few seconds: starting here, on this
piece of track, heading this way, what comes up next?

The engine walks a branching rail network from a point on a segment and streams the notable
events it meets (segment boundaries, junctions, posted speed limits, grade changes) with their
distance from the start, already oriented for the traveller.

# Concept

Segments carry intrinsic annotations discovered by casting rays along their centerline and
parsing the sign labels they hit. Annotations are computed once per segment, cached, and
dropped wholesale when the geometry changes. A traversal stitches the cached annotations of
every segment it crosses into one lazy sequence, and a small pipeline of stages resolves the
dual speed limits posted before junctions and removes what a driver does not need to read.

The engine never moves junctions: it only reads their live selection through ports.JunctionState.

# Usage

	network, _ := dsl.New().
		Segment("A", 500).Sign(400, "6\n10", dsl.Forward).
		Build()

	eng, err := lookahead.New(network)
	if err != nil {
		log.Fatal(err)
	}

	events, err := eng.Upcoming(ctx, lookahead.Query{Segment: "A"})
	if err != nil {
		log.Fatal(err)
	}
	for ev := range events {
		fmt.Println(ev)
	}

# Adapters

  - pkg/adapters/memory: in-memory network, junction state, sign placement and annotation cache.
  - pkg/adapters/redis: shared annotation cache.
  - pkg/adapters/file: YAML/JSON network files.
  - pkg/adapters/http and pkg/adapters/mcp: query the engine remotely.
*/
package lookahead
