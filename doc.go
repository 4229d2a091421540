// Package keyset provides before/after cursor pagination for ordered
// queries.
//
// Overview
//
// Given a query that is already ordered, a cursor position and a page size,
// a Strategy assembles the query returning the page adjacent to the cursor
// without offsets:
//   - ModeAfter selects the rows that follow the cursor in the declared
//     order.
//   - ModeBefore selects the rows that precede it. The sort is flipped so
//     the nearest rows come first and FixOrder restores the declared order
//     of the fetched page.
//
// Key concepts
//   - Query: the capabilities a query abstraction provides. GormQuery adapts
//     a *gorm.DB, package memquery provides an in-memory engine.
//   - CursorValue: a scalar for single column orders or a tuple holding one
//     value per sort column.
//   - Predicate: the tie-safe disjunction selecting rows strictly beyond the
//     cursor for any mix of ascending and descending columns.
//   - Getters: maps sort columns to row values for building neighbour page
//     cursors.
//
// The original query is never modified, so a configured Strategy may be
// shared between goroutines.
package keyset
