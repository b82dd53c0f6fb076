package mediatypes

// FileType represents the kind of file a user hands to a wizard.
type FileType string

const (
	// FileTypeVideo represents a container the trim preview can decode.
	FileTypeVideo FileType = "video"
	// FileTypeImage represents a still image, such as a rendered preview frame.
	FileTypeImage FileType = "image"
	// FileTypeOther represents an unknown extension. Such files may still be
	// converted; ffmpeg decides what it can read.
	FileTypeOther FileType = "other"
)

// VideoExtensions maps container extensions to whether they are recognized
// video formats. It covers every output container in the codec catalog plus
// common input-only formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".ts":   true,
	".m2ts": true,
	".3gp":  true,
	".avi":  true,
	".mpg":  true,
	".mpeg": true,
	".m2v":  true,
	".webm": true,
	".ogv":  true,
	".mxf":  true,
	".flv":  true,
	".m4v":  true,
	".wmv":  true,
}

// ImageExtensions maps still image extensions to whether they are recognized.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".ts":   "video/mp2t",
	".m2ts": "video/mp2t",
	".3gp":  "video/3gpp",
	".avi":  "video/x-msvideo",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".m2v":  "video/mpeg",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mxf":  "application/mxf",
	".flv":  "video/x-flv",
	".m4v":  "video/x-m4v",
	".wmv":  "video/x-ms-wmv",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsVideoFile returns true if the extension is a recognized video container.
func IsVideoFile(ext string) bool {
	return GetFileType(ext) == FileTypeVideo
}
