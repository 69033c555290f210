// Package store provides the systems content is moved between: MemStore
// for tests and embedding, DirStore for systems kept on disk. Both serve
// as a model.Catalog on the source side and as an install target on the
// target side.
package store
