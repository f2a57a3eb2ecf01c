package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_Success(t *testing.T) {
	raw := &domain.RawDocument{
		ID:       "guide.md",
		URI:      "/docs/guide.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Install Guide\n\nRun **make** and read the [docs](https://example.com)."),
	}

	doc, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "guide.md", doc.ID)
	assert.Equal(t, "Install Guide", doc.Title)
	assert.Equal(t, "Install Guide\n\nRun make and read the docs.", doc.Content)
	assert.Equal(t, "markdown", doc.Metadata["format"])
}

func TestExtract_TitleFallsBackToFilename(t *testing.T) {
	raw := &domain.RawDocument{ID: "a", URI: "/docs/release-notes.md", Content: []byte("## Section\ntext")}

	doc, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "release notes", doc.Title)
}

func TestExtract_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"headings", "## Heading\ntext", "Heading\ntext"},
		{"bold and italic", "**bold** and *italic*", "bold and italic"},
		{"links keep text", "see [here](http://x)", "see here"},
		{"images keep alt", "![diagram](d.png)", "diagram"},
		{"inline code keeps text", "call `Run()` now", "call Run() now"},
		{"code fence keeps body", "```go\nfmt.Println()\n```", "fmt.Println()"},
		{"list markers", "- one\n- two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted", "quoted"},
		{"horizontal rule", "a\n\n---\n\nb", "a\n\nb"},
		{"snake case survives", "use max_tokens here", "use max_tokens here"},
		{"front matter", "---\ntitle: x\n---\nbody", "body"},
		{"html tags", "a <br/> b", "a  b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}
