package database

// SourceType records how a photo entered the library.
type SourceType string

const (
	// SourceScan marks records found by a directory scan.
	SourceScan SourceType = "scan"
	// SourceUpload marks records copied into the managed library.
	SourceUpload SourceType = "upload"
)

// Photo is one indexed media file. Path is the identity key.
type Photo struct {
	ID         int64      `json:"id"`
	Path       string     `json:"path"`
	Name       string     `json:"name"`
	DateTaken  int64      `json:"dateTaken"` // Unix seconds, UTC
	Width      uint32     `json:"width"`     // 0 when not probed
	Height     uint32     `json:"height"`    // 0 when not probed
	SourceType SourceType `json:"sourceType"`
	IsFavorite bool       `json:"isFavorite"`
	CreatedAt  int64      `json:"createdAt"` // last upsert, Unix seconds
}

// Album is a named collection of photo paths.
type Album struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CoverPhotoPath string `json:"coverPhotoPath,omitempty"`
	CreatedAt      int64  `json:"createdAt"`
	PhotoCount     int64  `json:"photoCount"`
}

// YearCount is one bucket of the capture-year histogram.
type YearCount struct {
	Year  string `json:"year"`
	Count int64  `json:"count"`
}

// LibraryStats summarises the store contents.
type LibraryStats struct {
	TotalPhotos    int64  `json:"totalPhotos"`
	ScannedPhotos  int64  `json:"scannedPhotos"`
	UploadedPhotos int64  `json:"uploadedPhotos"`
	Favorites      int64  `json:"favorites"`
	Albums         int64  `json:"albums"`
	LastScanRoot   string `json:"lastScanRoot,omitempty"`
	LastScanAt     int64  `json:"lastScanAt,omitempty"` // Unix seconds
}
