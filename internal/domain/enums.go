package domain

// FileType represents the allowed file types for submission.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
	FileTypeTXT FileType = "txt"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"text/plain":      FileTypeTXT,
}

// Extensions maps FileType to the on-disk extension used for the archived
// source copy inside a dataset entry.
var Extensions = map[FileType]string{
	FileTypePDF: ".pdf",
	FileTypeJPG: ".jpg",
	FileTypePNG: ".png",
	FileTypeTXT: ".txt",
}

// JobStatus represents the lifecycle of a submitted processing job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// PageSource identifies how a page's content was obtained.
type PageSource string

const (
	PageSourceDigitalText PageSource = "digital-text"
	PageSourceRaster      PageSource = "rasterized-image"
)

// PageState is the per-page processing state. Accepted and Failed are
// terminal; assembly waits for every page to reach one of them.
type PageState string

const (
	PageStatePending  PageState = "pending"
	PageStateAccepted PageState = "accepted"
	PageStateFailed   PageState = "failed-page"
)

// Script is a writing-system tag attached to recognized text.
type Script string

const (
	ScriptArabic Script = "arabic"
	ScriptLatin  Script = "latin"
	ScriptOther  Script = "other"
)

// EngineID identifies which OCR engine produced a page's authoritative text.
type EngineID string

const (
	EngineNone     EngineID = "none"
	EngineFast     EngineID = "fast"
	EngineAccurate EngineID = "accurate"
)

// Verdict is the aggregated per-page quality decision.
type Verdict string

const (
	VerdictAccept   Verdict = "accept"
	VerdictEscalate Verdict = "escalate"
	VerdictReject   Verdict = "reject"
)
