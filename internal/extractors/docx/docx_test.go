package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX file in memory.
func createTestDOCX(documentXML, coreXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}
	if coreXML != "" {
		core, _ := w.Create("docProps/core.xml")
		core.Write([]byte(coreXML))
	}

	w.Close()
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_Success(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + wordNS + `>
<w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> World</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>para</w:t></w:r></w:p>
<w:p></w:p>
</w:body>
</w:document>`
	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Policy Handbook</dc:title></cp:coreProperties>`

	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		ID:       "handbook.docx",
		URI:      "/docs/handbook.docx",
		MIMEType: MIMEType,
		Content:  createTestDOCX(docXML, coreXML),
	})
	require.NoError(t, err)

	assert.Equal(t, "handbook.docx", doc.ID)
	assert.Equal(t, "Policy Handbook", doc.Title)
	assert.Equal(t, "Hello World\nSecond\tpara", doc.Content)
	assert.Equal(t, "docx", doc.Metadata["format"])
}

func TestExtract_TableParagraphs(t *testing.T) {
	docXML := `<w:document ` + wordNS + `><w:body>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell one</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>cell two</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body></w:document>`

	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		ID: "t", URI: "/t.docx", Content: createTestDOCX(docXML, ""),
	})
	require.NoError(t, err)

	assert.Equal(t, "cell one\ncell two", doc.Content)
	assert.Equal(t, "t", doc.Title)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("plain text")},
		{"missing document part", createTestDOCX("", "")},
		{"malformed xml", createTestDOCX("<w:document><w:body>", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(context.Background(), &domain.RawDocument{ID: "x", Content: tt.content})
			assert.Error(t, err)
		})
	}
}

func TestExtract_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
