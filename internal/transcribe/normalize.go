package transcribe

import (
	"net/http"
	"path"
	"strings"
)

// acceptedExtensions are the audio containers the provider accepts.
var acceptedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".mp4":  true,
	".webm": true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// sniffedExtensions maps sniffed content types to provider extensions.
// net/http sniffing reports container types, not audio subtypes, for
// mp4/webm, hence the video/ entries.
var sniffedExtensions = map[string]string{
	"audio/wave":      ".wav",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"audio/mpeg":      ".mp3",
	"audio/mp4":       ".mp4",
	"video/mp4":       ".mp4",
	"audio/webm":      ".webm",
	"video/webm":      ".webm",
	"application/ogg": ".ogg",
	"audio/ogg":       ".ogg",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
}

// ExtensionForMIME returns the provider extension for a declared MIME
// type, or ".webm" for anything unrecognized.
func ExtensionForMIME(mimeType string) string {
	// Strip codec parameters: "audio/webm;codecs=opus"
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if ext, ok := sniffedExtensions[mimeType]; ok {
		return ext
	}
	return ".webm"
}

// NormalizeFilename rewrites fileName's extension based on the content
// actually observed, not the client-declared type. The provider validates
// uploads by extension, so a mislabeled blob would otherwise be rejected.
func NormalizeFilename(fileName string, audio []byte) string {
	sniffed := http.DetectContentType(audio)
	ext := ExtensionForMIME(sniffed)

	current := strings.ToLower(path.Ext(fileName))
	if ext == ".webm" && acceptedExtensions[current] {
		// Sniffing was inconclusive; trust a plausible declared extension.
		return fileName
	}
	if current == ext {
		return fileName
	}
	return strings.TrimSuffix(fileName, path.Ext(fileName)) + ext
}
