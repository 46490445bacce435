package utils

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"
)

func TestSanitizeInput(t *testing.T) {
	cases := map[string]string{
		"  Asha  ":                         "Asha",
		"hi<script>alert(1)</script>there": "hithere",
		"a\x00b":                           "ab",
		"D'Souza & Sons":                   "D'Souza & Sons",
	}
	for in, want := range cases {
		if got := SanitizeInput(in); got != want {
			t.Errorf("SanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeStringArrayDropsEmpty(t *testing.T) {
	got := SanitizeStringArray([]string{"Hindi", " ", "English"})
	if len(got) != 2 || got[0] != "Hindi" || got[1] != "English" {
		t.Errorf("got %v", got)
	}
}

func uploadHeader(t *testing.T, field, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(data)
	_ = w.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File[field][0]
}

func TestReadUpload(t *testing.T) {
	fh := uploadHeader(t, "audioIntro", "../intro (1).mp3", []byte("ID3"))
	file, err := ReadUpload(fh, MediaAudio)
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if file.Filename != "intro1.mp3" || file.ContentType != "audio/mpeg" || string(file.Data) != "ID3" {
		t.Errorf("file = %s %s %q", file.Filename, file.ContentType, file.Data)
	}

	if _, err := ReadUpload(uploadHeader(t, "profilePicture", "me.gif", []byte("GIF89a")), MediaImage); err == nil {
		t.Error("expected gif to be rejected")
	}
}
