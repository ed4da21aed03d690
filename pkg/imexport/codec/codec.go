// Package codec reads and writes spreadsheet workbooks for compiled
// schemas. A Codec is created once from an embedded profile through a
// Loader and is safe for concurrent use.
package codec

import "github.com/gui-xie/import-export/pkg/imexport/models"

// ContentType is the MIME type of the workbooks the codec produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Codec generates templates, encodes rows and decodes workbooks.
type Codec struct {
	profile *Profile
}

// Initialize creates a codec from a raw, already decompressed, profile.
func Initialize(raw []byte) (*Codec, error) {
	p, err := ParseProfile(raw)
	if err != nil {
		return nil, err
	}
	return &Codec{profile: p}, nil
}

// Profile returns a copy of the codec's profile.
func (c *Codec) Profile() Profile {
	return *c.profile
}

// dateLayout is the layout decoded dates are rendered in.
func (c *Codec) dateLayout() string {
	return c.profile.Date.Layouts[0]
}

// columnWidth returns the width of a leaf column.
func (c *Codec) columnWidth(col models.ColumnInfo) float64 {
	if col.Width != nil {
		return *col.Width
	}
	return c.profile.ColumnWidth
}
