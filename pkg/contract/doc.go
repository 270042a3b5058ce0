// Package contract defines the data contract model: a versioned, declarative
// description of the expected shape and quality of a tabular dataset.
//
// A Contract is a pure value. Construction and deserialization are the only
// mutation points; after Validate succeeds the instance is treated as
// immutable. Profile overlays, lint applications and version bumps all return
// new Contract values and never touch the receiver.
//
// Rules are a closed set of tagged variants (RuleKind plus one kind-specific
// parameter payload). Evaluation code switches exhaustively over the kind set,
// so adding a kind is a compile-visible change rather than a runtime registry
// update.
package contract
