package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
)

// TagsInput accepts either "tech, go" or ["tech", "go"].
type TagsInput domain.TagList

// UnmarshalJSON delegates to domain.TagList.
func (t *TagsInput) UnmarshalJSON(data []byte) error {
	var list domain.TagList
	if err := list.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = TagsInput(list)
	return nil
}

// Schema implements huma.SchemaProvider.
func (TagsInput) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Tag names as a comma-separated string or an array of strings",
		Nullable:    true,
		OneOf: []*huma.Schema{
			{Type: huma.TypeString},
			{Type: huma.TypeArray, Items: &huma.Schema{Type: huma.TypeString}},
		},
	}
}
