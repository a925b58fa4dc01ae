package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job represents one submitted file moving through the pipeline. It is the
// unit the queue worker claims and the unit the API reports status for.
type Job struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	OriginalName string          `db:"original_name" json:"original_name"`
	ContentType  string          `db:"content_type" json:"content_type"`
	FileType     FileType        `db:"file_type" json:"file_type"`
	FileSize     int64           `db:"file_size" json:"file_size"`
	S3Bucket     string          `db:"s3_bucket" json:"-"`
	S3Key        string          `db:"s3_key" json:"-"`
	Status       JobStatus       `db:"status" json:"status"`
	Attempts     int             `db:"attempts" json:"attempts"`
	ErrorMessage string          `db:"error_message" json:"error_message,omitempty"`
	Metadata     json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	DatasetKey   string          `db:"dataset_key" json:"dataset_key,omitempty"`
	StartedAt    *time.Time      `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Document is the in-memory representation of a job's file during
// processing. The process service owns it exclusively until it hands the
// assembled result to the dataset writer.
type Document struct {
	ID          uuid.UUID
	ContentType string
	FileType    FileType
	Pages       []*Page
	CreatedAt   time.Time
}

// Page is one page of a Document. Index is zero-based and order-significant;
// pages may be processed concurrently but never reordered.
type Page struct {
	Index          int
	Source         PageSource
	Image          []byte // PNG-encoded raster, present only for rasterized pages
	Regions        []TextRegion
	Confidence     float64
	Engine         EngineID
	Script         ScriptDistribution
	State          PageState
	EmptyPage      bool
	FailureReason  string
	FastPassMS     int64
	AccuratePassMS int64
}

// Rect is a bounding box in pixel coordinates, origin upper-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// TextRegion is a recognized run of text with geometry and provenance.
// ReadingOrder is assigned by the assembler and may differ from the
// geometric order for right-to-left content.
type TextRegion struct {
	Bounds       Rect    `json:"bounds"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	Script       Script  `json:"script"`
	ReadingOrder int     `json:"reading_order"`
}

// OCRResult is the immutable output of one engine invocation.
type OCRResult struct {
	Regions  []TextRegion
	Engine   EngineID
	Duration time.Duration
}

// Text concatenates all region text, space-separated, in the order the
// engine returned it.
func (r *OCRResult) Text() string {
	out := ""
	for i, reg := range r.Regions {
		if i > 0 {
			out += " "
		}
		out += reg.Text
	}
	return out
}

// ScriptDistribution holds the character-class makeup of a run of text.
// Fractions sum to 1 when Total > 0.
type ScriptDistribution struct {
	Arabic float64 `json:"arabic"`
	Latin  float64 `json:"latin"`
	Other  float64 `json:"other"`
	Total  int     `json:"-"`
}

// Dominant returns the script with the largest fraction.
func (d ScriptDistribution) Dominant() Script {
	if d.Arabic >= d.Latin && d.Arabic >= d.Other && d.Arabic > 0 {
		return ScriptArabic
	}
	if d.Latin >= d.Other && d.Latin > 0 {
		return ScriptLatin
	}
	return ScriptOther
}

// QualityVerdict is the aggregator's decision for a page.
type QualityVerdict struct {
	Verdict Verdict
	Score   float64
	Reason  string
}

// MetadataSchemaVersion is bumped additively only; consumers of older
// versions must keep parsing newer records.
const MetadataSchemaVersion = "1"

// PageMetadata is the durable per-page summary inside a MetadataRecord.
type PageMetadata struct {
	Index          int                `json:"index"`
	Source         PageSource         `json:"source"`
	Engine         EngineID           `json:"engine"`
	Script         ScriptDistribution `json:"script_distribution"`
	Confidence     float64            `json:"confidence"`
	EmptyPage      bool               `json:"empty_page"`
	LowConfidence  bool               `json:"low_confidence,omitempty"`
	Failed         bool               `json:"failed,omitempty"`
	FailureReason  string             `json:"failure_reason,omitempty"`
	FastPassMS     int64              `json:"fast_pass_ms,omitempty"`
	AccuratePassMS int64              `json:"accurate_pass_ms,omitempty"`
}

// MetadataRecord is the JSON contract consumed by downstream dataset
// readers. Fields are only ever added, never removed or renamed.
type MetadataRecord struct {
	SchemaVersion      string         `json:"schema_version"`
	JobID              string         `json:"job_id"`
	OriginalName       string         `json:"original_filename"`
	ContentType        string         `json:"file_type"`
	PageCount          int            `json:"page_count"`
	Pages              []PageMetadata `json:"pages"`
	DocumentConfidence float64        `json:"document_confidence"`
	ProcessingMS       int64          `json:"processing_ms"`
	FailedPages        []int          `json:"failed_pages"`
	Status             JobStatus      `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
}

// DatasetEntry is the immutable (source, text, metadata) triple produced per
// document. Key is derived from the document identity and is unique.
type DatasetEntry struct {
	Key          string    `db:"dataset_key" json:"dataset_key"`
	JobID        uuid.UUID `db:"job_id" json:"job_id"`
	SourcePath   string    `db:"source_path" json:"source_file_ref"`
	TextPath     string    `db:"text_path" json:"text_file_ref"`
	MetadataPath string    `db:"metadata_path" json:"metadata_ref"`
	ContentHash  string    `db:"content_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
