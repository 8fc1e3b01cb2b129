// Package dedup filters item streams against a set of already-seen keys.
//
// A Store answers Exists and records Save for string keys. MemoryStore lives
// for one process; the badger and redis packages provide persistent stores
// that carry the seen-set across runs.
//
// Stage is a pipeline stage that drops items whose key was already seen. The
// key is saved before the item is passed downstream, so a failure later in the
// pipeline never causes the same item to be treated as new again; the item may
// instead be lost if delivery fails.
//
// Guard makes the opposite trade for work that may fail transiently, such as
// fetching a link: it saves the key only after the wrapped stage finished
// without error, so a failed input is processed again on the next run.
package dedup
