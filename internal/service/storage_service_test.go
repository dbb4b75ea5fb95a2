package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewMinIOStorageServiceCarriesDownloadTTL(t *testing.T) {
	svc, err := NewMinIOStorageService("storage.test:9000", "access", "secret", "documents", false, time.Hour)
	if err != nil {
		t.Fatalf("construct storage service: %v", err)
	}
	if svc.downloadTTL != time.Hour {
		t.Fatalf("expected download TTL of 1h, got %s", svc.downloadTTL)
	}
}

func TestPresignRejectsEmptyObjectKey(t *testing.T) {
	svc, err := NewMinIOStorageService("storage.test:9000", "access", "secret", "documents", false, time.Hour)
	if err != nil {
		t.Fatalf("construct storage service: %v", err)
	}
	if _, err := svc.PresignDownload(context.Background(), "  ", "will.pdf"); !errors.Is(err, ErrEmptyObjectKey) {
		t.Fatalf("expected ErrEmptyObjectKey for download, got %v", err)
	}
	if _, err := svc.PresignUpload(context.Background(), ""); !errors.Is(err, ErrEmptyObjectKey) {
		t.Fatalf("expected ErrEmptyObjectKey for upload, got %v", err)
	}
}

func TestObjectKeyBuilderBuild(t *testing.T) {
	keys := NewObjectKeyBuilder(map[string]string{"DFJ_DK": "dk/customer-documents"})

	if got := keys.Build("DFJ_DK", "J-1044", "J-1044_signed will.pdf"); got != "dk/customer-documents/J-1044/J-1044_signed_will.pdf" {
		t.Fatalf("unexpected object key: %s", got)
	}
	// Unknown market units land under the shared prefix.
	if got := keys.Build("HL_IE", "J-9001", "deed.pdf"); !strings.HasPrefix(got, "customer-documents/J-9001/") {
		t.Fatalf("expected shared prefix fallback, got %s", got)
	}
}
