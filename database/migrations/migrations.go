// Package migrations registers every schema migration. Import it for side
// effects wherever migration.Runner is used.
package migrations
