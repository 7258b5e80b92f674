package models

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, ""},
		{-1, ""},
		{1, "0:01"},
		{59, "0:59"},
		{60, "1:00"},
		{95, "1:35"},
		{605, "10:05"},
		{3725, "62:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestErrorKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{ErrInvalidURL, 400},
		{ErrNotFound, 404},
		{ErrRateLimited, 429},
		{ErrInternalError, 500},
		{ErrorKind("something_else"), 500},
	}
	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestResolutionResultSucceeded(t *testing.T) {
	if !Success(&ExtractionOutcome{VideoURL: "https://cdn.example/v.mp4"}).Succeeded() {
		t.Error("expected success with a video URL")
	}
	if Success(&ExtractionOutcome{}).Succeeded() {
		t.Error("empty video URL is not a success")
	}
	if Failure(ErrNotFound, "gone").Succeeded() {
		t.Error("failure result must not report success")
	}
}

func TestCanonicalTargetIsShareLink(t *testing.T) {
	share := CanonicalTarget{Platform: PlatformFacebook, Kind: KindShareLink}
	if !share.IsShareLink() {
		t.Error("share kind should report as share link")
	}
	reel := CanonicalTarget{Platform: PlatformFacebook, Kind: KindReel}
	if reel.IsShareLink() {
		t.Error("reel kind is not a share link")
	}
}
