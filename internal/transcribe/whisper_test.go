package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want whisper-1", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q, want verbose_json", got)
		}
		if _, hdr, err := r.FormFile("file"); err != nil {
			t.Errorf("form file: %v", err)
		} else if hdr.Filename != "recording_1.webm" {
			t.Errorf("filename = %q, want recording_1.webm", hdr.Filename)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth = %q, want Bearer sk-test", got)
		}
		w.Write([]byte(`{"text":"hello world","language":"en","duration":3.2}`))
	}))
	defer srv.Close()

	wc := NewWhisperClient(srv.URL, "sk-test", "whisper-1", 5*time.Second)
	resp, err := wc.Transcribe(context.Background(), "recording_1.webm", []byte("fake-audio"), TranscribeOpts{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if resp.Text != "hello world" {
		t.Errorf("Text = %q, want hello world", resp.Text)
	}
	if resp.Duration != 3.2 {
		t.Errorf("Duration = %v, want 3.2", resp.Duration)
	}
}

func TestWhisperClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"file format not supported"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	wc := NewWhisperClient(srv.URL, "", "whisper-1", 5*time.Second)
	_, err := wc.Transcribe(context.Background(), "a.webm", []byte("x"), TranscribeOpts{})
	if err == nil {
		t.Fatal("expected error on HTTP 400")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error = %v, want status 400 mention", err)
	}
}

func TestWhisperClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	wc := NewWhisperClient(srv.URL, "", "whisper-1", 5*time.Second)
	if _, err := wc.Transcribe(context.Background(), "a.webm", []byte("x"), TranscribeOpts{}); err == nil {
		t.Fatal("expected error on malformed body")
	}
}

func TestWhisperClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	wc := NewWhisperClient(srv.URL, "", "whisper-1", 50*time.Millisecond)
	start := time.Now()
	_, err := wc.Transcribe(context.Background(), "a.webm", []byte("x"), TranscribeOpts{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call took %v, should be bounded by the client timeout", elapsed)
	}
}

func TestWhisperClient_RejectsOversizedAudio(t *testing.T) {
	wc := NewWhisperClient("http://unused", "", "whisper-1", time.Second)
	_, err := wc.Transcribe(context.Background(), "a.webm", make([]byte, MaxAudioBytes+1), TranscribeOpts{})
	if err == nil {
		t.Fatal("expected error for oversized audio")
	}
}

func TestWhisperClient_RejectsEmptyAudio(t *testing.T) {
	wc := NewWhisperClient("http://unused", "", "whisper-1", time.Second)
	if _, err := wc.Transcribe(context.Background(), "a.webm", nil, TranscribeOpts{}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestNormalizeFilename(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 32)...)

	tests := []struct {
		name     string
		fileName string
		audio    []byte
		want     string
	}{
		{"wav content corrects webm name", "recording_1.webm", wav, "recording_1.wav"},
		{"wav content keeps wav name", "recording_1.wav", wav, "recording_1.wav"},
		{"unknown content keeps accepted extension", "recording_1.mp3", []byte("zzzz-opaque"), "recording_1.mp3"},
		{"unknown content and extension defaults to webm", "recording_1.raw", []byte{0x01, 0x02, 0x03}, "recording_1.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFilename(tt.fileName, tt.audio); got != tt.want {
				t.Errorf("NormalizeFilename(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestExtensionForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/webm;codecs=opus", ".webm"},
		{"audio/wav", ".wav"},
		{"audio/mpeg", ".mp3"},
		{"video/mp4", ".mp4"},
		{"application/x-mystery", ".webm"},
	}
	for _, tt := range tests {
		if got := ExtensionForMIME(tt.mime); got != tt.want {
			t.Errorf("ExtensionForMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
