/*
Package vitae tracks what changed in a two-column CV while it is being edited by hand or rewritten by an AI collaborator.

Every section, sub-section, paragraph and bullet point carries a stable ID. A frozen copy of the document taken when editing starts is the baseline; the live copy is mutated through path-addressed writes. At any time the two can be compared to tell which sections were removed, modified or added, to render a merged view where deleted sections are still visible and restorable, and to list field-level text changes for inline annotation.

# Usage

Documents are read from a content directory (JSON, YAML or Markdown frontmatter, one file per locale) or injected through a custom loader.

	eng, err := vitae.New("./content")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	sess, err := eng.Sessions().Start(ctx, "en")
	if err != nil {
		log.Fatal(err)
	}

	title := domain.At(domain.MainColumn, 0).Title()
	if _, err := eng.Sessions().SetValue(ctx, sess.ID, title, "Work"); err != nil {
		log.Fatal(err)
	}

	changes, _ := eng.Sessions().Analyze(ctx, sess.ID)
	fmt.Println(changes.ModifiedSections.Sorted())

For two standalone documents, Compare runs the whole pipeline without a session.

# AI Rewrites

A rewrite is bracketed by BeginRewrite and CompleteRewrite on the session manager. While a rewrite is pending, user edits are refused. The rewritten document gets its IDs carried over from the snapshot by structural position, so rewritten nodes still line up with the baseline.
*/
package vitae
