package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"letternest/internal/domain/lesson"
)

const cacheFileName = "topics_cache.json"

// TopicLister is the remote source of topics.
type TopicLister interface {
	ListTopics(ctx context.Context) ([]lesson.Topic, error)
}

// Cache serves the topic library from a JSON file, refreshing it from the
// backend once it is older than maxAge.
type Cache struct {
	cacheDir  string
	cacheFile string
	maxAge    time.Duration
	source    TopicLister
	sourceURL string
	log       *logrus.Entry
}

// cachedTopics is the on-disk layout of the cache file.
type cachedTopics struct {
	Library     Library   `json:"library"`
	LastUpdated time.Time `json:"last_updated"`
	TotalTopics int       `json:"total_topics"`
}

// CacheInfo describes the cache file.
type CacheInfo struct {
	Path         string
	Exists       bool
	Size         int64
	LastModified time.Time
	Fresh        bool
	MaxAge       time.Duration
}

func NewCache(cacheDir string, maxAge time.Duration, source TopicLister, sourceURL string, log *logrus.Entry) *Cache {
	log = log.WithField("component", "library")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		log.WithError(err).Warn("failed to create cache directory")
	}

	return &Cache{
		cacheDir:  cacheDir,
		cacheFile: filepath.Join(cacheDir, cacheFileName),
		maxAge:    maxAge,
		source:    source,
		sourceURL: sourceURL,
		log:       log,
	}
}

// Library returns the topic library, from cache while it is fresh and from
// the backend otherwise. When the backend cannot be reached a stale cache
// is served instead.
func (c *Cache) Library(ctx context.Context) (*Library, error) {
	if c.isFresh() {
		lib, err := c.load()
		if err == nil {
			return lib, nil
		}
		c.log.WithError(err).Warn("cache unreadable, fetching topics")
	}
	return c.Refresh(ctx)
}

// Refresh fetches the topic list from the backend and rewrites the cache.
func (c *Cache) Refresh(ctx context.Context) (*Library, error) {
	c.log.Debug("fetching topics from backend")
	topics, err := c.source.ListTopics(ctx)
	if err != nil {
		c.log.WithError(err).Warn("topic fetch failed, trying stale cache")
		if lib, cacheErr := c.load(); cacheErr == nil {
			return lib, nil
		}
		return nil, fmt.Errorf("fetch topics and no cache available: %w", err)
	}

	lib := &Library{Name: "LetterNest lessons", URL: c.sourceURL, Topics: topics}
	if err := c.save(lib); err != nil {
		c.log.WithError(err).Warn("failed to save topic cache")
	}
	return lib, nil
}

func (c *Cache) isFresh() bool {
	info, err := os.Stat(c.cacheFile)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < c.maxAge
}

func (c *Cache) load() (*Library, error) {
	file, err := os.Open(c.cacheFile)
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer file.Close()

	var cached cachedTopics
	if err := json.NewDecoder(file).Decode(&cached); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"topics":       len(cached.Library.Topics),
		"last_updated": cached.LastUpdated.Format(time.RFC3339),
	}).Debug("loaded topics from cache")
	return &cached.Library, nil
}

// save writes the cache through a temporary file so readers never see a
// partial file.
func (c *Cache) save(lib *Library) error {
	cached := cachedTopics{
		Library:     *lib,
		LastUpdated: time.Now(),
		TotalTopics: len(lib.Topics),
	}

	tmp, err := os.CreateTemp(c.cacheDir, cacheFileName+".*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cached); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.cacheFile); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"topics": len(lib.Topics),
		"file":   c.cacheFile,
	}).Debug("saved topic cache")
	return nil
}

// ClearCache removes the cache file.
func (c *Cache) ClearCache() error {
	if err := os.Remove(c.cacheFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.log.Info("cleared topic cache")
	return nil
}

func (c *Cache) Info() CacheInfo {
	info := CacheInfo{Path: c.cacheFile, MaxAge: c.maxAge}
	if stat, err := os.Stat(c.cacheFile); err == nil {
		info.Exists = true
		info.Size = stat.Size()
		info.LastModified = stat.ModTime()
		info.Fresh = c.isFresh()
	}
	return info
}
