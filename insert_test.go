package iconpane

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRendering(t *testing.T) *Rendering {
	t.Helper()
	r, err := testProcessor(t).Process(context.Background(), Request{
		LibraryID: "shapes",
		Icon:      IconReference{Name: "square"},
		Render:    DefaultRenderStyle(24),
	})
	require.NoError(t, err)
	return r
}

func TestInsert_ShouldBuildPayload(t *testing.T) {
	r := sampleRendering(t)
	p := NewInsertPayload(r, DefaultPlacement)

	assert.Equal(t, "png", p.Format)
	assert.Equal(t, 100.0, p.Left)
	assert.Equal(t, 100.0, p.Top)
	assert.Equal(t, 24.0, p.Width)
	assert.Equal(t, "Inserted: Square", p.Label)
	assert.Equal(t, r.Base64(), p.Data)
}

func TestInsert_ShouldLabelByTitle(t *testing.T) {
	assert.Equal(t, "Inserted: Heart Fill", Label(IconReference{Name: "heart-fill"}))
	assert.Equal(t, "Inserted: Love", Label(IconReference{Name: "heart-fill", Title: "Love"}))
}

func TestInsert_ShouldWriteFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewInsertPayload(sampleRendering(t), DefaultPlacement)
	p.Name = "nested/square"

	require.NoError(t, FileInserter{Dir: dir}.Insert(context.Background(), p))

	data, err := os.ReadFile(filepath.Join(dir, "nested-square.png"))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 24, img.Bounds().Dx())

	p.Data = "%%%"
	err = FileInserter{Dir: dir}.Insert(context.Background(), p)
	assert.ErrorIs(t, err, ErrInsertionFailed)

	p = NewInsertPayload(sampleRendering(t), DefaultPlacement)
	err = FileInserter{Dir: filepath.Join(dir, "missing")}.Insert(context.Background(), p)
	assert.ErrorIs(t, err, ErrInsertionFailed)
}

func TestInsert_ShouldWriteJSONLines(t *testing.T) {
	var buf bytes.Buffer
	ins := &JSONInserter{W: &buf}
	p := NewInsertPayload(sampleRendering(t), Placement{Left: 5, Top: 6})

	require.NoError(t, ins.Insert(context.Background(), p))
	require.NoError(t, ins.Insert(context.Background(), p))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got InsertPayload
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, p, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ins.Insert(ctx, p), context.Canceled)
}
