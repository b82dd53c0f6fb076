// Package catalog holds the static option tables the wizard offers: the
// codec to container compatibility table and the pixel format catalog.
//
// The tables live in an embedded YAML document that is decoded once on first
// use. A [Table] exposes no mutation API; every accessor returns a copy, so
// callers cannot alter the shared data.
//
//	tbl := catalog.Default()
//	h264, _ := tbl.Codec("h264")
//	fmt.Println(h264.Encoder) // libx264
//
// Pixel formats carry a Common flag. [Table.VisiblePixelFormats] implements
// the "common subset vs full list" disclosure used by the convert wizard.
package catalog
