// Package schedule is the client for the external schedule/course service
// that owns the raw occurrence data. Fetches honor ETag / Last-Modified
// with a disk-backed body cache, and fall back to the cached body when the
// network is unavailable.
package schedule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// Client talks to the schedule service.
type Client struct {
	baseURL  string
	client   *http.Client
	cacheDir string
}

// cacheEntry holds HTTP cache metadata for one URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewClient creates a Client. cacheDir is where per-URL response bodies and
// their cache metadata are stored.
func NewClient(baseURL, cacheDir string) *Client {
	if cacheDir == "" {
		cacheDir = "./var/schedule-cache"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Semester fetches the semester descriptor (date envelope, max week).
func (c *Client) Semester(ctx context.Context, semesterID string) (model.SemesterDescriptor, error) {
	var desc model.SemesterDescriptor
	u := fmt.Sprintf("%s/api/semesters/%s", c.baseURL, url.PathEscape(semesterID))
	if err := c.getJSON(ctx, u, &desc); err != nil {
		return model.SemesterDescriptor{}, err
	}
	if desc.ID == "" {
		desc.ID = semesterID
	}
	return desc, nil
}

// SemesterOccurrences fetches every raw occurrence of a semester.
func (c *Client) SemesterOccurrences(ctx context.Context, semesterID string) ([]model.ScheduleOccurrence, error) {
	u := fmt.Sprintf("%s/api/semesters/%s/occurrences", c.baseURL, url.PathEscape(semesterID))
	return c.fetchOccurrences(ctx, u)
}

// CourseOccurrences fetches the raw occurrences of a single course.
func (c *Client) CourseOccurrences(ctx context.Context, courseID string) ([]model.ScheduleOccurrence, error) {
	u := fmt.Sprintf("%s/api/courses/%s/occurrences", c.baseURL, url.PathEscape(courseID))
	return c.fetchOccurrences(ctx, u)
}

func (c *Client) fetchOccurrences(ctx context.Context, u string) ([]model.ScheduleOccurrence, error) {
	var occs []model.ScheduleOccurrence
	if err := c.getJSON(ctx, u, &occs); err != nil {
		return nil, err
	}
	return occs, nil
}

// getJSON performs a conditional GET with disk-cache fallback and decodes
// the JSON body into v.
func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	body, err := c.fetchBody(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("schedule: decode %s: %w", redactURL(u), err)
	}
	return nil
}

// fetchBody fetches one URL, honoring ETag and Last-Modified via the cache
// under c.cacheDir keyed by a hash of the URL.
func (c *Client) fetchBody(ctx context.Context, u string) ([]byte, error) {
	if u == "" {
		return nil, errors.New("schedule: empty url")
	}

	cachePath := c.cachePathForURL(u)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.json"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("schedule fetch start", "url", redactURL(u))

	resp, err := c.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("schedule fetch network error, using cached body", err, "url", redactURL(u))
			return cachedBody, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		newMeta := cacheEntry{
			URL:          u,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("schedule cache save failed", err, "url", redactURL(u))
		}
		return body, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("schedule: 304 Not Modified but no cached body")
		}
		appLog.Debug("schedule fetch not modified; using cache", "url", redactURL(u))
		return cachedBody, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("schedule fetch non-OK, using cached body", errors.New(resp.Status), "url", redactURL(u), "status", resp.StatusCode)
			return cachedBody, nil
		}
		return nil, fmt.Errorf("schedule: %s: %s", redactURL(u), resp.Status)
	}
}

func (c *Client) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(c.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.json"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides query strings and deep paths when logging service URLs.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "schedule://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
