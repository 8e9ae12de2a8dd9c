package video

// Reference identifies one logical camera feed backed by a stored clip.
type Reference struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

type Catalog struct {
	refs       []Reference
	byFilename map[string]Reference
}

func NewCatalog(refs []Reference) *Catalog {
	c := &Catalog{
		refs:       make([]Reference, len(refs)),
		byFilename: make(map[string]Reference, len(refs)),
	}
	copy(c.refs, refs)
	for _, r := range refs {
		c.byFilename[r.Filename] = r
	}
	return c
}

// DefaultCatalog returns the demo feeds shipped with the dashboard.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Reference{
		{ID: "football", Name: "Backyard Cam", Filename: "football.mp4", Description: "Football game in backyard"},
		{ID: "cat_food", Name: "Cat Cam", Filename: "cat_food.mp4", Description: "Cat food monitoring"},
		{ID: "gauge", Name: "Gauge Cam", Filename: "gauge.mp4", Description: "Gauge monitoring"},
		{ID: "pedestrians", Name: "Street Cam", Filename: "pedestrians.mp4", Description: "Pedestrians on sidewalk"},
		{ID: "thermometer", Name: "Thermometer Cam", Filename: "thermometer.mp4", Description: "Temperature monitoring"},
		{ID: "times_square", Name: "Times Square Cam", Filename: "times_square.mp4", Description: "Times Square street view"},
	})
}

func (c *Catalog) List() []Reference {
	out := make([]Reference, len(c.refs))
	copy(out, c.refs)
	return out
}

// Lookup reports whether filename is an allowed catalog entry.
func (c *Catalog) Lookup(filename string) (Reference, bool) {
	r, ok := c.byFilename[filename]
	return r, ok
}
