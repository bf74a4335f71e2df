package storage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/logger"
)

const galleryPrefix = "group-images/"

// Generation parameter defaults, applied when a request omits them.
const (
	DefaultSteps    = 25.0
	DefaultGuidance = 7.0
	DefaultControl  = 1.0
)

// ImageDocument is the stored form of one generated image plus its metadata.
type ImageDocument struct {
	Output    string    `json:"output"` // base64 image payload
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Steps     float64   `json:"steps"`
	Guidance  float64   `json:"guidance"`
	Control   float64   `json:"control"`
	Target    string    `json:"target"` // groups images generated by the same job
	Timestamp time.Time `json:"timestamp"`
	NSFW      bool      `json:"nsfw"`
}

// paramOrDefault reads one generation parameter from the flat params map.
func paramOrDefault(params map[string]float64, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return def
}

// ImageStore persists generated images as JSON documents in the blob store,
// grouped into galleries by target timestamp.
type ImageStore struct {
	kv        KV
	cdnDomain string
	timeNow   func() time.Time
}

// NewImageStore creates an image store over the given blob store.
// cdnDomain may be empty; CDNURL then returns a bare key path.
func NewImageStore(kv KV, cdnDomain string) *ImageStore {
	return &ImageStore{kv: kv, cdnDomain: cdnDomain, timeNow: time.Now}
}

// SaveImage stores a generated image and returns the key it was stored under.
func (s *ImageStore) SaveImage(base64Image, modelName, prompt string, params map[string]float64, target string) (string, error) {
	now := s.timeNow().UTC()
	key := fmt.Sprintf("%s%s/%s-%s.json", galleryPrefix, target, NormalizeModelName(modelName), now.Format("20060102150405"))

	doc := ImageDocument{
		Output:    base64Image,
		Model:     modelName,
		Prompt:    prompt,
		Steps:     paramOrDefault(params, "steps", DefaultSteps),
		Guidance:  paramOrDefault(params, "guidance", DefaultGuidance),
		Control:   paramOrDefault(params, "control", DefaultControl),
		Target:    target,
		Timestamp: now,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal image document")
	}
	if err := s.kv.Put(key, data); err != nil {
		return "", errors.Wrap(err, "failed to save image")
	}

	logger.Debugw("Saved image", logger.FieldKey, key, "model", modelName)
	return key, nil
}

// GetImage loads an image document by key.
func (s *ImageStore) GetImage(key string) (*ImageDocument, error) {
	data, err := s.kv.Get(key)
	if err != nil {
		return nil, err
	}
	var doc ImageDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal image document %s", key)
	}
	return &doc, nil
}

// ListGalleries returns all gallery targets, newest first.
func (s *ImageStore) ListGalleries() ([]string, error) {
	keys, err := s.kv.ListPrefix(galleryPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list galleries")
	}

	seen := make(map[string]bool)
	var galleries []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, galleryPrefix)
		target, _, ok := strings.Cut(rest, "/")
		if !ok || target == "" || seen[target] {
			continue
		}
		seen[target] = true
		galleries = append(galleries, target)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(galleries)))
	return galleries, nil
}

// ListGalleryImages returns the image keys within one gallery.
func (s *ImageStore) ListGalleryImages(target string) ([]string, error) {
	keys, err := s.kv.ListPrefix(galleryPrefix + target + "/")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list gallery %s", target)
	}

	var images []string
	for _, key := range keys {
		if strings.HasSuffix(key, ".json") {
			images = append(images, key)
		}
	}
	return images, nil
}

// CDNURL returns the public URL for a stored image key.
func (s *ImageStore) CDNURL(key string) string {
	if s.cdnDomain == "" {
		return "/" + key
	}
	return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
}

var modelNameStrip = regexp.MustCompile(`[^a-z0-9\-]`)
var modelNameHyphens = regexp.MustCompile(`-+`)

// NormalizeModelName lowers a display name into a filename-safe slug:
// lowercase, spaces to hyphens, non-alphanumerics stripped, runs of
// hyphens collapsed, leading and trailing hyphens trimmed.
func NormalizeModelName(name string) string {
	normalized := strings.ToLower(name)
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = modelNameStrip.ReplaceAllString(normalized, "")
	normalized = modelNameHyphens.ReplaceAllString(normalized, "-")
	return strings.Trim(normalized, "-")
}
