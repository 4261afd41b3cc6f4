package loam

// CVMetadata is the document header as Loam decodes it: the whole object for
// .json/.yaml files, the frontmatter for .md files. Columns stay loosely typed
// here and are decoded by domain.Decode, which also accepts legacy
// bare-string paragraphs.
type CVMetadata struct {
	ID             string `json:"id" mapstructure:"id"`
	Locale         string `json:"locale" mapstructure:"locale"`
	Name           string `json:"name" mapstructure:"name"`
	Subtitle       string `json:"subtitle" mapstructure:"subtitle"`
	ProfilePicture string `json:"profilePicture" mapstructure:"profilePicture"`
	MainColumn     []any  `json:"mainColumn" mapstructure:"mainColumn"`
	SideColumn     []any  `json:"sideColumn" mapstructure:"sideColumn"`
}

func (m CVMetadata) tree() map[string]any {
	return map[string]any{
		"name":           m.Name,
		"subtitle":       m.Subtitle,
		"profilePicture": m.ProfilePicture,
		"mainColumn":     m.MainColumn,
		"sideColumn":     m.SideColumn,
	}
}
