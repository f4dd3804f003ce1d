// Package querycache is a keyed query cache for REST resources with
// generation-based invalidation.
//
// A Client is the process-wide store: create it at start, Close it at shutdown,
// and pass it to whatever needs cached reads. Each read is described by a
// QueryConfig (key, request function, codec, options) and observed through a
// Query handle; writes go through a Mutation.
//
// Components:
//   - Provider: byte store with TTL (Ristretto, BigCache, Redis).
//   - Codec[T]: (de)serializes results T <-> []byte (msgpack by default).
//   - GenStore: generations per endpoint and per key. Local by default,
//     Redis for multi-process invalidation.
//
// Keys:
//
//	q:<ns>:<endpoint>:<hash>   - stored results, hash over canonical CBOR of the params
//	ep:<endpoint>              - endpoint generation scope
//	key:<endpoint>:<hash>      - single key generation scope
//
// Fetch pattern:
//
//	gens := snapshot(endpoint, key) // before the request
//	v    := request(ctx, params)
//	store(key, v) iff gens unchanged // an invalidation during the request wins
package querycache
