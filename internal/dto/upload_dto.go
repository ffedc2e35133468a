package dto

// UploadResponse describes a stored file.
type UploadResponse struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
	Checksum  string `json:"checksum"`
	FileName  string `json:"fileName"`
}
