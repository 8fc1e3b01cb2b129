// Package redis provides Redis-backed stores for ingestion runs: a shared
// dedup seen-set, a cursor, and a fetch content cache, all on go-redis.
//
//	client, err := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	seen := redis.NewDedupStore(client, "articles", 30*24*time.Hour)
//	last := redis.NewCursorStore(client, "articles")
//	cache := redis.NewCache(client, "pages")
//
// Keys are namespaced as <KeyPrefix>:<kind>:<name>:<key>.
//
// # Typed Operations
//
// TypedStore provides generic JSON-serialized get/set operations and backs
// Cache:
//
//	store := redis.NewTypedStore[fetch.Content](client, "pages")
//	store.Save(ctx, url, &content, time.Hour)
package redis
