package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

const (
	sectionsKeyPrefix = "techdata:sections:" // Current sections: techdata:sections:{project_id}
	versionsKeyPrefix = "techdata:versions:" // Version history: techdata:versions:{project_id}
	entryTTL          = 7 * 24 * time.Hour   // TTL for cached technical data (7 days)
)

// Cache keeps a per-project copy of the live sections and version history
// in Redis. It is a convenience layer next to the system of record: on load
// the persister wins if it has data, the cache is the fallback, and the
// built-in template is the last resort.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// SaveState writes the sections and version list for a project in one
// pipeline so a reader never sees them out of step.
func (c *Cache) SaveState(ctx context.Context, projectID string, sections []domain.Section, versions []domain.Version) error {
	secData, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	verData, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("marshal versions: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.sectionsKey(projectID), secData, entryTTL)
	pipe.Set(ctx, c.versionsKey(projectID), verData, entryTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache state: %w", err)
	}
	return nil
}

// LoadSections returns the cached sections for a project. The bool reports
// whether the project had a cache entry.
func (c *Cache) LoadSections(ctx context.Context, projectID string) ([]domain.Section, bool, error) {
	data, err := c.client.Get(ctx, c.sectionsKey(projectID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached sections: %w", err)
	}

	var sections []domain.Section
	if err := json.Unmarshal([]byte(data), &sections); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached sections: %w", err)
	}
	return sections, true, nil
}

// LoadVersions returns the cached version history, newest first.
func (c *Cache) LoadVersions(ctx context.Context, projectID string) ([]domain.Version, bool, error) {
	data, err := c.client.Get(ctx, c.versionsKey(projectID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached versions: %w", err)
	}

	var versions []domain.Version
	if err := json.Unmarshal([]byte(data), &versions); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached versions: %w", err)
	}
	return versions, true, nil
}

// Delete drops both cache entries for a project.
func (c *Cache) Delete(ctx context.Context, projectID string) error {
	if err := c.client.Del(ctx, c.sectionsKey(projectID), c.versionsKey(projectID)).Err(); err != nil {
		return fmt.Errorf("delete cache entries: %w", err)
	}
	return nil
}

// PruneVersions trims a project's cached history to at most max entries,
// keeping the newest. Returns how many versions were dropped.
func (c *Cache) PruneVersions(ctx context.Context, projectID string, max int) (int, error) {
	versions, ok, err := c.LoadVersions(ctx, projectID)
	if err != nil || !ok {
		return 0, err
	}
	if len(versions) <= max {
		return 0, nil
	}

	dropped := len(versions) - max
	pruned := versions[:max]
	data, err := json.Marshal(pruned)
	if err != nil {
		return 0, fmt.Errorf("marshal pruned versions: %w", err)
	}
	if err := c.client.Set(ctx, c.versionsKey(projectID), data, entryTTL).Err(); err != nil {
		return 0, fmt.Errorf("set pruned versions: %w", err)
	}
	return dropped, nil
}

// ProjectIDs scans for every project with cached technical data.
func (c *Cache) ProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := c.client.Scan(ctx, 0, sectionsKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(sectionsKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan cache keys: %w", err)
	}
	return ids, nil
}

func (c *Cache) sectionsKey(projectID string) string {
	return sectionsKeyPrefix + projectID
}

func (c *Cache) versionsKey(projectID string) string {
	return versionsKeyPrefix + projectID
}
