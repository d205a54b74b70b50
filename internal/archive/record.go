package archive

import "time"

// EnquiryRecord is the archived form of one inbound enquiry email: the
// normalized message plus what was extracted from it. Archived payloads feed
// extraction-quality review, so both the raw text and the per-field sources
// are kept.
type EnquiryRecord struct {
	Version     string            `json:"version"`
	OrgID       string            `json:"org_id"`
	EnquiryID   int64             `json:"enquiry_id"`
	Sender      string            `json:"sender"`
	SenderEmail string            `json:"sender_email"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Extracted   map[string]string `json:"extracted"`
	Sources     map[string]string `json:"sources,omitempty"`
	Duplicate   bool              `json:"duplicate"`
	ArchivedAt  time.Time         `json:"archived_at"`
}

// ManifestEntry is one JSONL line in the monthly manifest.
type ManifestEntry struct {
	OrgID      string `json:"org_id"`
	EnquiryID  int64  `json:"enquiry_id"`
	S3Key      string `json:"s3_key"`
	Duplicate  bool   `json:"duplicate"`
	ArchivedAt string `json:"archived_at"`
}
