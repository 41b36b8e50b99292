/*
Package pipeline turns a raw traversal into the list a driver wants to see.

Each Stage wraps a lazy event sequence in another one, so stages compose without materializing
the traversal. Stages are stateless values: the state they need (last emitted limit, buffered
dual limits) lives inside each iteration, which keeps the resulting sequences restartable.
*/
package pipeline
