package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseDocx(t *testing.T) {
	t.Parallel()

	body := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Senior Go Engineer</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Kubernetes</w:t><w:tab/><w:t>Docker</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := Parse("resume.docx", docx(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer\nKubernetes Docker", text)
}

func TestParsePlainText(t *testing.T) {
	t.Parallel()

	text, err := Parse("job.TXT", []byte("  Python \t developer\n\n\nSQL required  "))
	require.NoError(t, err)
	assert.Equal(t, "Python developer\nSQL required", text)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse("resume.odt", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Parse("resume.txt", []byte(" \n\t "))
	assert.True(t, errors.Is(err, ErrNoText))

	_, err = Parse("resume.pdf", []byte("not a pdf"))
	assert.Error(t, err)

	_, err = Parse("resume.docx", docx(t, ""))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Resume\nGo, SQL"), 0o600))

	text, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Resume\nGo, SQL", text)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
