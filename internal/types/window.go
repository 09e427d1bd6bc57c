package types

import "time"

// WindowRecord represents one surfaced top-level window
type WindowRecord struct {
	Handle      uint64  `json:"handle" yaml:"handle"`
	Title       string  `json:"title" yaml:"title"`
	ProcessID   uint32  `json:"process_id" yaml:"process_id"`
	ProcessName *string `json:"process_name" yaml:"process_name"`
	Icon        *string `json:"icon" yaml:"icon,omitempty"` // data:image/png;base64,...
}

// WindowList is the payload of a listing: the records plus when and by
// which refresh they were produced
type WindowList struct {
	Generation uint64         `json:"generation" yaml:"generation"`
	TakenAt    time.Time      `json:"taken_at" yaml:"taken_at"`
	Windows    []WindowRecord `json:"windows" yaml:"windows"`
}

// ThumbnailRegistration identifies a live thumbnail held for the panel
type ThumbnailRegistration struct {
	ID     string `json:"id"`
	Source uint64 `json:"source"`
	Width  int32  `json:"width"`
	Height int32  `json:"height"`
}
