package mesh

// Cache owns the rest shape of one building instance. Get rebuilds only
// when the key changes; Deform never touches it.
type Cache struct {
	key    Params
	geo    *Geometry
	builds int
}

func NewCache() *Cache {
	return &Cache{}
}

// Get returns the rest shape for p, rebuilding it if p differs from the
// cached key. On error the previous shape is kept.
func (c *Cache) Get(p Params) (*Geometry, error) {
	if c.geo != nil && c.key == p {
		return c.geo, nil
	}
	geo, err := Build(p)
	if err != nil {
		return nil, err
	}
	c.key = p
	c.geo = geo
	c.builds++
	return geo, nil
}

// Current returns the cached rest shape, or nil before the first Get.
func (c *Cache) Current() *Geometry { return c.geo }

// Builds counts rebuilds since creation.
func (c *Cache) Builds() int { return c.builds }
