// Package pipeline provides pull-based iterators and composable
// transformation stages.
//
// Nothing runs until a value is pulled. Each stage is asked for its next
// output only when the consumer pulls, so memory stays bounded by the depth
// of the chain rather than the number of items.
//
// # Iterators
//
// Iterator is the single-use pull contract. Of, Single and Empty cover fixed
// values; SeqIter and Seq2Iter adapt range-over-func generators; Pull drains
// an iterator into a slice.
//
// # Stages and pipelines
//
// A Stage turns one input into zero, one or many outputs. Pipeline chains
// stages of the same item type and is itself a Stage; Compose joins two stages
// whose types differ.
//
//	p := pipeline.New[Link](robots, dedupStage)
//	stage := pipeline.Compose[Page, Link, Link](extractor, p)
//	it, _ := stage.Process(ctx, page)
//	links, _ := pipeline.Pull(ctx, it)
package pipeline
