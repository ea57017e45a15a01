// Package cache provides the client-side TTL store used to keep upstream
// sports data fresh without refetching it on every request.
//
// # Areas
//
// An [Area] is a persistent string key-value area, the role local storage
// plays in a browser. It knows nothing about expiry. Implementations:
//
//   - [NewMemoryArea]: a mutex guarded map that lives as long as the process.
//     [WithQuota] caps its size so quota failures can be exercised.
//
//   - [NewSQLiteArea]: a SQLite table using [modernc.org/sqlite] (pure Go, no
//     CGO). File backed databases survive restarts; ":memory:" does not.
//
//   - [NewRedisArea]: plain Redis strings using [github.com/redis/go-redis/v9],
//     so several processes can share one cache. The caller owns the client.
//
//   - [NewCompositeArea]: chains areas. The first hit wins on read, writes and
//     removes go to every tier.
//
// # Store
//
// [Store] layers TTL semantics on an Area. [Store.Set] writes
// `{"value": ..., "expiry": <unix ms>}` under `<prefix><key>`; [Store.Get]
// returns the value while `now <= expiry` and removes the entry the first time
// a read observes it expired. There is no background timer unless
// [WithSweep] is given, which suits a long running process that might
// otherwise accumulate entries nobody reads again.
//
// Caching is best effort. A write that fails (quota, I/O, encoding) is
// logged and dropped; the caller never sees it. A read that fails or finds an
// unreadable payload is a miss.
//
// A ttl <= 0 can never produce a future expiry, so Set treats it as a delete.
//
// # Exec
//
// [Exec] is the cache-aside helper the resource layer is built on:
//
//	val, hit, err := cache.Exec(ctx, store, cache.ExecConfig[json.RawMessage]{
//	    Key: "game_summary_401",
//	    TTL: summaryTTL, // inspects the fetched payload
//	}, fetch)
//
// The TTL function runs after the fetch succeeds and sees the fresh value, so
// a game that just went final is stored with the long lifetime.
//
// # Codecs
//
// [JSONCodec] is the default persisted layout. [MsgpackCodec] stores the
// same entry as base64 msgpack ([github.com/vmihailenco/msgpack/v5]).
package cache
