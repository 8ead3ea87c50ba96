// Package static embeds the site's fixed assets.
package static

import (
	"embed"
	"io/fs"
)

//go:embed assets
var embedded embed.FS

// Files holds the embedded assets with the assets/ prefix stripped, so
// style.css lives at the root.
var Files = func() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}()
