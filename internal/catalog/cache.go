package catalog

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

const allCategoriesKey = "all"

// categoryCache holds the category listing between writes.
type categoryCache struct {
	lru *expirable.LRU[string, []models.Category]
}

func newCategoryCache(size int, ttl time.Duration) *categoryCache {
	if size <= 0 {
		size = 1
	}
	return &categoryCache{lru: expirable.NewLRU[string, []models.Category](size, nil, ttl)}
}

func (c *categoryCache) get() ([]models.Category, bool) {
	return c.lru.Get(allCategoriesKey)
}

func (c *categoryCache) set(categories []models.Category) {
	c.lru.Add(allCategoriesKey, categories)
}

func (c *categoryCache) purge() {
	c.lru.Purge()
}
