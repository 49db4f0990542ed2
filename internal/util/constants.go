package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// answer media
const (
	MimeAudio       = "audio/"
	MimeVideo       = "video/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"

	MaxAnswerUploadBytes = 50 << 20
)

var (
	AllowedAudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".webm", ".aac"}
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
	AllowedFileExtensions  = []string{".pdf", ".doc", ".docx", ".txt", ".odt", ".png", ".jpg", ".jpeg"}
)
