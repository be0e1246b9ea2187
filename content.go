package slimrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/grafana/regexp"
)

// ContentResolver infers content types and loads route content. The router
// uses it for every FilePath route. FileResolver is the default
// implementation and reads from the local filesystem.
type ContentResolver interface {
	// ContentType returns the content type for the given path, or an empty
	// string if it cannot be determined.
	ContentType(path string) string

	IsJSON(contentType string) bool
	IsText(contentType string) bool
	IsBinary(contentType string) bool

	ReadJSON(ctx context.Context, path string) (any, error)
	ReadText(ctx context.Context, path string) (string, error)
	ReadBinary(ctx context.Context, path string) ([]byte, error)
}

var separatorRuns = regexp.MustCompile(`[/\\]+`)

// NormalizeURI returns the canonical form of a route URI or request path.
// Runs of forward or back slashes collapse to a single slash, dot segments are
// resolved, a leading slash is added and a trailing slash is removed.
//
//	NormalizeURI("assets//img/")   // "/assets/img"
//	NormalizeURI(`\a\..\b`)        // "/b"
func NormalizeURI(uri string) string {
	uri = strings.TrimSpace(uri)
	uri = separatorRuns.ReplaceAllString(uri, "/")
	return path.Clean("/" + uri)
}

var contentTypesByExtension = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "text/javascript",
	".mjs":   "text/javascript",
	".json":  "application/json",
	".map":   "application/json",
	".txt":   "text/plain",
	".md":    "text/markdown",
	".csv":   "text/csv",
	".xml":   "application/xml",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".pdf":   "application/pdf",
	".wasm":  "application/wasm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".zip":   "application/zip",
	".gz":    "application/gzip",
}

var textApplicationTypes = map[string]bool{
	"application/javascript":   true,
	"application/x-javascript": true,
	"application/xml":          true,
	"application/xhtml+xml":    true,
	"image/svg+xml":            true,
}

var binaryApplicationTypes = map[string]bool{
	"application/octet-stream": true,
	"application/pdf":          true,
	"application/wasm":         true,
	"application/zip":          true,
	"application/gzip":         true,
}

// FileResolver is a ContentResolver backed by the local filesystem.
type FileResolver struct{}

var _ ContentResolver = &FileResolver{}

// NewFileResolver creates a FileResolver.
func NewFileResolver() *FileResolver {
	return &FileResolver{}
}

// ContentType infers the content type from the file extension. Types not in
// the built in table fall back to the system mime database. Parameters such as
// charset are dropped.
func (f *FileResolver) ContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return ""
	}
	if contentType, ok := contentTypesByExtension[ext]; ok {
		return contentType
	}
	return mediaType(mime.TypeByExtension(ext))
}

// IsJSON reports whether the content type should be loaded as structured JSON.
func (f *FileResolver) IsJSON(contentType string) bool {
	mt := mediaType(contentType)
	return mt == "application/json" || mt == "text/json" || strings.HasSuffix(mt, "+json")
}

// IsText reports whether the content type should be loaded as text.
func (f *FileResolver) IsText(contentType string) bool {
	mt := mediaType(contentType)
	return strings.HasPrefix(mt, "text/") || textApplicationTypes[mt] || strings.HasSuffix(mt, "+xml")
}

// IsBinary reports whether the content type should be loaded as raw bytes.
func (f *FileResolver) IsBinary(contentType string) bool {
	mt := mediaType(contentType)
	if textApplicationTypes[mt] {
		return false
	}
	for _, prefix := range []string{"image/", "audio/", "video/", "font/"} {
		if strings.HasPrefix(mt, prefix) {
			return true
		}
	}
	return binaryApplicationTypes[mt]
}

func (f *FileResolver) ReadJSON(ctx context.Context, filePath string) (any, error) {
	data, err := f.ReadBinary(ctx, filePath)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decoding json file %s: %w", filePath, err)
	}
	return value, nil
}

func (f *FileResolver) ReadText(ctx context.Context, filePath string) (string, error) {
	data, err := f.ReadBinary(ctx, filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *FileResolver) ReadBinary(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filePath)
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// withinRoot reports whether target is root or below it.
func withinRoot(root, target string) bool {
	cleanRoot := filepath.Clean(root)
	cleanTarget := filepath.Clean(target)
	if cleanRoot == string(filepath.Separator) {
		return filepath.IsAbs(cleanTarget)
	}
	return cleanTarget == cleanRoot || strings.HasPrefix(cleanTarget, cleanRoot+string(filepath.Separator))
}
