// Package badger provides persistent dedup and cursor stores on BadgerDB.
//
// One DB can back several stores; each store keeps its keys under its own
// prefix so a dedup seen-set and a cursor can share a directory:
//
//	db, err := badger.Open(badger.Config{Path: "./data"})
//	seen := badger.NewDedupStore(db, "articles")
//	last := badger.NewCursorStore(db, "articles")
package badger
