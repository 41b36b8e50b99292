/*
Package dsl provides a fluent builder for rail networks.

It produces a *memory.Network with straight segments laid out side by side, grade profiles and
sign labels placed next to the track, so scenarios can be described in a few lines instead of
a network file. It is the fixture factory of the engine's tests.

Example usage:

	b := dsl.New()
	b.Segment("A", 500).Sign(400, "6\n10", dsl.Forward)
	b.Segment("B", 300).Grade(1.5)
	b.Segment("C", 300)
	b.Junction("J").In("A", dsl.Last).Out("B", dsl.First).Out("C", dsl.First)

	network, err := b.Build()
*/
package dsl
