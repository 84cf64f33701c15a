package models

// ArtifactKind groups stored files by purpose.
type ArtifactKind string

const (
	ArtifactKindResume         ArtifactKind = "resumes"
	ArtifactKindJobDescription ArtifactKind = "job-descriptions"
)

// Artifact references a stored file by its opaque key.
type Artifact struct {
	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
