// Package flow lays out a realized content sequence into regions.
//
// # Overview
//
// A flow invocation turns []content.Pair into a layout.Fragment, one frame
// per region. It runs in four stages:
//
//   - Collection converts pairs into an arena of children: spacing, lines,
//     unbreakable and breakable blocks, placed elements, tags and breaks.
//   - Composition lays out one region at a time. It owns the out-of-flow
//     insertions (floats and footnotes) and restarts a column or page when an
//     insertion changes the space left for in-flow content.
//   - Distribution packs in-flow children into a (sub)region, splitting
//     breakable blocks and carrying their remainder into the next region.
//   - The driver loops over regions until all work is drained.
//
// In balanced column mode, a measurement pass on throwaway copies of the
// remaining work picks the column height before the real pass.
//
// # Purity
//
// Given identical pairs, options and regions, [Engine.Layout] produces
// identical fragments. Nothing in an invocation is visible to another, so
// independent invocations may run in parallel on separate engines.
//
// # Errors
//
// Whether content fits is never an error: running out of space ends a region
// internally. Fatal conditions surface as *errors.Error values with codes
// such as ErrCodeInfiniteExpansion, ErrCodeMaxDepth, ErrCodeLayoutImpossible
// and ErrCodeRelayoutLoop. Non-fatal problems are collected as warnings, see
// [Engine.Warnings].
package flow
