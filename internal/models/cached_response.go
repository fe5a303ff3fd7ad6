package models

import (
	"fmt"
	"time"
)

// CachedResponse is an HTTP response body stored by the downloader cache.
//
// The key identifies the request (method, URL and body hash). A nil expiry never expires.
type CachedResponse struct {
	id         string
	key        string
	method     string
	url        string
	statusCode int
	body       []byte
	createdAt  time.Time
	updatedAt  time.Time
	expiresAt  *time.Time
}

// NewCachedResponse creates a [CachedResponse] stamped with the current time.
// An expireAfter of zero or less stores the response without expiry.
func NewCachedResponse(key, method, url string, statusCode int, body []byte, expireAfter time.Duration) *CachedResponse {
	now := time.Now().UTC()
	resp := &CachedResponse{
		key:        key,
		method:     method,
		url:        url,
		statusCode: statusCode,
		body:       body,
		createdAt:  now,
		updatedAt:  now,
	}
	if expireAfter > 0 {
		expires := now.Add(expireAfter)
		resp.expiresAt = &expires
	}
	return resp
}

func (c *CachedResponse) ID() string            { return c.id }
func (c *CachedResponse) Key() string           { return c.key }
func (c *CachedResponse) Method() string        { return c.method }
func (c *CachedResponse) URL() string           { return c.url }
func (c *CachedResponse) StatusCode() int       { return c.statusCode }
func (c *CachedResponse) Body() []byte          { return c.body }
func (c *CachedResponse) CreatedAt() time.Time  { return c.createdAt }
func (c *CachedResponse) UpdatedAt() time.Time  { return c.updatedAt }
func (c *CachedResponse) ExpiresAt() *time.Time { return c.expiresAt }

func (c *CachedResponse) SetID(id string)              { c.id = id }
func (c *CachedResponse) SetCreatedAt(t time.Time)     { c.createdAt = t }
func (c *CachedResponse) SetUpdatedAt(t time.Time)     { c.updatedAt = t }
func (c *CachedResponse) SetExpiresAt(t *time.Time)    { c.expiresAt = t }
func (c *CachedResponse) SetBody(status int, b []byte) { c.statusCode, c.body = status, b }

// Expired reports whether the response has an expiry at or before now.
func (c *CachedResponse) Expired(now time.Time) bool {
	return c.expiresAt != nil && !now.Before(*c.expiresAt)
}

// Validate checks that the response can be stored.
func (c *CachedResponse) Validate() error {
	if c.key == "" {
		return fmt.Errorf("cached response key is required")
	}
	if c.method == "" {
		return fmt.Errorf("cached response method is required")
	}
	if c.url == "" {
		return fmt.Errorf("cached response url is required")
	}
	if c.statusCode < 100 || c.statusCode > 599 {
		return fmt.Errorf("invalid status code: %d", c.statusCode)
	}
	return nil
}
