package textextract_test

import (
	"testing"

	"github.com/igoriokas/web-crawler/internal/textextract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextIncludesScriptAndStyleBodies(t *testing.T) {
	body := []byte(`
		<html><head><style>.a{color:red}</style></head>
		<body>
			<script>var x = 1;</script>
			<h1>Hello World</h1>
			<p>Some text here.</p>
		</body></html>
	`)

	text, err := textextract.ExtractText("text/html", body)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello World")
	assert.Contains(t, text, "Some text here.")
	assert.Contains(t, text, "color:red")
	assert.Contains(t, text, "var x = 1")
}

func TestExtractTextPlainPassthrough(t *testing.T) {
	text, err := textextract.ExtractText("text/plain", []byte("raw text"))
	require.NoError(t, err)
	assert.Equal(t, "raw text", text)
}

func TestCountWordsLowercasesAndTokenizes(t *testing.T) {
	counts := textextract.CountWords("Hello, hello world! WORLD.")
	assert.Equal(t, 2, counts["hello"])
	assert.Equal(t, 2, counts["world"])
	assert.Len(t, counts, 2)
}

func TestCountWordsEmptyText(t *testing.T) {
	counts := textextract.CountWords("")
	assert.Empty(t, counts)
}
