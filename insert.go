package iconpane

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Placement is the position of an inserted image in device-independent units.
type Placement struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// DefaultPlacement puts images at the host's default offset.
var DefaultPlacement = Placement{Left: 100, Top: 100}

// InsertPayload is what the host receives for an insertion.
type InsertPayload struct {
	Data   string  `json:"data"`
	Format string  `json:"format"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label"`
	Name   string  `json:"name"`
}

// NewInsertPayload prepares a rendering for insertion at place.
func NewInsertPayload(r *Rendering, place Placement) InsertPayload {
	return InsertPayload{
		Data:   r.Base64(),
		Format: strings.ToLower(r.Format.String()),
		Left:   place.Left,
		Top:    place.Top,
		Width:  float64(r.Size),
		Height: float64(r.Size),
		Label:  Label(r.Icon.Reference),
		Name:   r.Icon.Reference.Name,
	}
}

// Label is the notification text shown once an icon has been inserted.
func Label(ref IconReference) string {
	title := ref.Title
	if title == "" {
		title = TitleFromName(ref.Name)
	}
	return "Inserted: " + title
}

// Inserter is the host document boundary. A rejected insertion is reported as an
// *InsertionError carrying the host message.
type Inserter interface {
	Insert(ctx context.Context, p InsertPayload) error
}

// InsertFunc adapts a function to the Inserter interface.
type InsertFunc func(ctx context.Context, p InsertPayload) error

// Insert calls f.
func (f InsertFunc) Insert(ctx context.Context, p InsertPayload) error { return f(ctx, p) }

// FileInserter writes inserted images into a directory, one file per insertion.
type FileInserter struct {
	Dir string
}

// Insert decodes the payload and writes it as <name>.<format>.
func (f FileInserter) Insert(ctx context.Context, p InsertPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return &InsertionError{Message: fmt.Sprintf("invalid image data: %v", err)}
	}
	name := strings.NewReplacer("/", "-", "\\", "-").Replace(p.Name)
	if name == "" || name == "." || name == ".." {
		name = "icon"
	}
	path := filepath.Join(f.Dir, name+"."+p.Format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &InsertionError{Message: err.Error()}
	}
	return nil
}

// JSONInserter writes every payload as one JSON line.
type JSONInserter struct {
	mu sync.Mutex
	W  io.Writer
}

// Insert encodes p to the writer.
func (j *JSONInserter) Insert(ctx context.Context, p InsertPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := json.NewEncoder(j.W).Encode(p); err != nil {
		return &InsertionError{Message: err.Error()}
	}
	return nil
}
