/*
Package diff compares an immutable original document with the live current one.

It provides three views over the same pair of trees:

  - Analyze classifies every section and sub-section as removed, modified or
    added, keyed by stable ID (or a positional fallback key).
  - MergeForRendering builds the ordered list the UI renders, re-introducing
    removed sections (tagged as deleted) after the surviving ones.
  - CompareSections / CompareTextArrays produce fine-grained, index-aligned
    text change records for inline annotations.

Analyze and the merge builder share MatchByIDOrIndex, so they always agree on
which original node corresponds to which current node. All functions are pure
reads and never mutate their inputs.
*/
package diff
