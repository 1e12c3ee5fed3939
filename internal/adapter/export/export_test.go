package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tagchain/internal/domain"
)

func exportRun() *domain.Run {
	return &domain.Run{
		ID:        "01JEXPORT0000000000000000",
		CreatedAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		Processor: "tagging.simple",
		Language:  "en",
		Tagged: [][]domain.TaggedToken{
			{{Surface: "The", Tag: "DT", Lemma: "the"}, {Surface: "dogs", Tag: "NNS", Lemma: "dog"}},
			{},
		},
		Source: domain.TokenizedSource{
			Docs: []domain.TokenizedDoc{
				{UID: "a.txt", Tokens: []string{"dog"}},
				{UID: "b.txt", Tokens: []string{}},
			},
			Meta: domain.SourceMeta{Tokenized: true, Processor: "tagging.simple", Language: "en"},
		},
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter().Export(&buf, exportRun()))

	var got domain.Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "01JEXPORT0000000000000000", got.ID)
	assert.Len(t, got.Tagged, 2)
	assert.Equal(t, []string{"dog"}, got.Source.Docs[0].Tokens)
	assert.Contains(t, buf.String(), "\n  ")
}

func TestXLSXExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter(nil).Export(&buf, exportRun()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetDocuments, sheetTokens, sheetTagged}, f.GetSheetList())

	docs, err := f.GetRows(sheetDocuments)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"UID", "Token Count", "Tagged Count"}, docs[0])
	assert.Equal(t, []string{"a.txt", "1", "2"}, docs[1])
	assert.Equal(t, []string{"b.txt", "0", "0"}, docs[2])

	tokens, err := f.GetRows(sheetTokens)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, []string{"a.txt", "1", "dog"}, tokens[1])

	tagged, err := f.GetRows(sheetTagged)
	require.NoError(t, err)
	require.Len(t, tagged, 3)
	assert.Equal(t, []string{"a.txt", "2", "dogs", "NNS", "dog"}, tagged[2])
}

func TestXLSXExporter_LargeDocumentIsLossless(t *testing.T) {
	const n = 6000
	lemmas := make([]string, n)
	for i := range lemmas {
		lemmas[i] = fmt.Sprintf("lemma%d", i)
	}
	run := exportRun()
	run.Source.Docs[0].Tokens = lemmas

	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter(nil).Export(&buf, run))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	tokens, err := f.GetRows(sheetTokens)
	require.NoError(t, err)
	require.Len(t, tokens, n+1)
	assert.Equal(t, []string{"a.txt", "6000", "lemma5999"}, tokens[n])

	count, err := f.GetCellValue(sheetDocuments, "B2")
	require.NoError(t, err)
	assert.Equal(t, "6000", count)
}

func TestXLSXExporter_OversizedValueFails(t *testing.T) {
	run := exportRun()
	run.Source.Docs[0].Tokens = []string{strings.Repeat("x", excelize.TotalCellChars+1)}

	err := NewXLSXExporter(nil).Export(&bytes.Buffer{}, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestForFormat(t *testing.T) {
	e, err := ForFormat("xlsx", nil)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", e.Extension())

	_, err = ForFormat("csv", nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
