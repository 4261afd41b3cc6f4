/*
Package domain contains the core document model of the vitae engine.

It defines the CV document tree that both a human editor and an AI rewrite
collaborator mutate, and the path vocabulary used to address any field in it.
This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Document: the root, with a name, a subtitle and two independent columns of Sections.
  - Section: a labeled block that may mix paragraphs, bullet points and sub-sections.
  - SubSection: a Section that cannot nest further.
  - Paragraph / BulletPoint: leaf nodes carrying a stable ID and a text body.
  - Path: an ordered list of key/index steps addressing a field from the root.

Every addressable node carries an opaque stable ID once it has gone through
the identity package. Diffing matches nodes by that ID and only falls back to
position when it is missing.
*/
package domain
