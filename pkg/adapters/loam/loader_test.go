package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/vitae/internal/testutils"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enJSON = `{
  "name": "Ada Lovelace",
  "subtitle": "Analyst",
  "mainColumn": [
    {
      "id": "exp",
      "title": "Experience",
      "subtitles": {"left": "1842", "right": "1843"},
      "paragraphs": ["Translated the memoir", {"id": "p2", "text": "Wrote the notes"}],
      "subSections": [
        {"title": "Analytical Engine", "bulletPoints": [{"iconName": "link", "text": "notes", "url": "https://example.org"}]}
      ]
    }
  ],
  "sideColumn": []
}`

const ptMarkdown = `---
locale: pt
name: Ada Lovelace
subtitle: Analista
mainColumn:
  - title: Experiência
    paragraphs:
      - Traduziu o artigo
---
Notas livres.`

func TestLoader_LoadDocument(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, tmpDir, map[string]string{
		"cv-en.json": enJSON,
		"resume.md":  ptMarkdown,
		"notes.md":   "---\ntitle: not a cv\n---\nbody",
	})

	loader := New(loam.NewTypedRepository[CVMetadata](repo))
	ctx := context.Background()

	doc, err := loader.LoadDocument(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", doc.Name)
	require.Len(t, doc.MainColumn, 1)

	sec := doc.MainColumn[0]
	assert.Equal(t, "exp", sec.ID)
	require.NotNil(t, sec.Subtitles)
	assert.Equal(t, "1843", sec.Subtitles.Right)
	assert.Equal(t, []string{"Translated the memoir", "Wrote the notes"}, domain.ParagraphTexts(sec.Paragraphs))
	assert.Equal(t, "p2", sec.Paragraphs[1].ID)
	require.Len(t, sec.SubSections, 1)
	assert.Equal(t, "https://example.org", sec.SubSections[0].BulletPoints[0].URL)

	pt, err := loader.LoadDocument(ctx, "pt")
	require.NoError(t, err, "explicit locale key wins over the file name")
	assert.Equal(t, "Analista", pt.Subtitle)
	assert.Equal(t, []string{"Traduziu o artigo"}, domain.ParagraphTexts(pt.MainColumn[0].Paragraphs))
}

func TestLoader_Locales(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, tmpDir, map[string]string{
		"cv-en.json": enJSON,
		"resume.md":  ptMarkdown,
		"notes.md":   "---\ntitle: not a cv\n---\nbody",
	})

	loader := New(loam.NewTypedRepository[CVMetadata](repo))
	locales, err := loader.Locales(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "pt"}, locales)
}

func TestLoader_NotFound(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	loader := New(loam.NewTypedRepository[CVMetadata](repo))

	_, err := loader.LoadDocument(context.Background(), "fr")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = loader.LoadDocument(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestLoader_DetectsLocaleCollisions(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, tmpDir, map[string]string{
		"cv-en.json": enJSON,
		"english.md": "---\nlocale: en\nname: Other\n---\n",
	})

	loader := New(loam.NewTypedRepository[CVMetadata](repo))
	_, err := loader.Locales(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLocaleOf(t *testing.T) {
	assert.Equal(t, "en", localeOf("cv-en.json", CVMetadata{}))
	assert.Equal(t, "pt-BR", localeOf("content/cv-pt-BR.md", CVMetadata{}))
	assert.Equal(t, "de", localeOf("whatever", CVMetadata{Locale: "de"}))
	assert.Equal(t, "", localeOf("notes.md", CVMetadata{}))
}
