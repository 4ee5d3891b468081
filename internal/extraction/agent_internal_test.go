package extraction

import (
	"testing"

	"github.com/JaimeStill/tally/internal/uploads"
)

func TestImageDataURI(t *testing.T) {
	tests := []struct {
		name    string
		mime    string
		payload string
		want    string
		wantErr bool
	}{
		{"jpeg", uploads.MimeJPEG, "AAEC", "data:image/jpeg;base64,AAEC", false},
		{"jpg normalized", uploads.MimeJPG, "AAEC", "data:image/jpeg;base64,AAEC", false},
		{"webp", uploads.MimeWebP, "AAEC", "data:image/webp;base64,AAEC", false},
		{"png bad base64", uploads.MimePNG, "!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imageDataURI(Request{DocumentBase64: tt.payload, MimeType: tt.mime})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
