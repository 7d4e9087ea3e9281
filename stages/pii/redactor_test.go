package pii

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vaanihq/vaani/domain/entities"
)

type failingDetector struct{}

func (failingDetector) Detect(string) ([]entities.PIIEntity, error) {
	return nil, errors.New("model load failed")
}

func newContext() entities.ProcessContext {
	return entities.NewProcessContext(entities.LanguageEnglish, "gold_loan", "")
}

func TestDetectAadhaar(t *testing.T) {
	d := NewRegexDetector()
	found, err := d.Detect("My Aadhaar is 1234 5678 9012 for verification.")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 entity, got %+v", found)
	}
	if found[0].Type != entities.PIITypeAadhaar {
		t.Errorf("expected aadhaar, got %s", found[0].Type)
	}
	if found[0].Text != "1234 5678 9012" {
		t.Errorf("wrong span %q", found[0].Text)
	}
}

func TestDetectPAN(t *testing.T) {
	d := NewRegexDetector()
	found, err := d.Detect("PAN ABCDE1234F is on file.")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(found) != 1 || found[0].Type != entities.PIITypePAN {
		t.Fatalf("expected one PAN entity, got %+v", found)
	}
}

func TestDetectPhoneAndEmail(t *testing.T) {
	d := NewRegexDetector()
	found, err := d.Detect("Call 9876543210 or write to priya.s@example.com today.")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 entities, got %+v", found)
	}
	types := map[entities.PIIType]bool{}
	for _, e := range found {
		types[e.Type] = true
	}
	if !types[entities.PIITypePhoneNumber] || !types[entities.PIITypeEmail] {
		t.Errorf("expected phone and email, got %+v", found)
	}
}

func TestAadhaarNotDoubleReportedAsAccount(t *testing.T) {
	d := NewRegexDetector()
	found, err := d.Detect("number 123456789012 given")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 entity for 12 contiguous digits, got %+v", found)
	}
	if found[0].Type != entities.PIITypeAadhaar {
		t.Errorf("expected aadhaar to win over bank account, got %s", found[0].Type)
	}
}

func TestPartialMaskKeepsLastFour(t *testing.T) {
	r := New(DefaultConfig(), NewRegexDetector(), zaptest.NewLogger(t))

	out, err := r.Process(context.Background(), "Your number 123456789012 is verified.", newContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "********9012") {
		t.Errorf("expected last four visible, got %q", out)
	}
	if strings.Contains(out, "123456789012") {
		t.Errorf("raw identifier leaked: %q", out)
	}
}

func TestAllowListKeepsPersonNames(t *testing.T) {
	r := New(DefaultConfig(), NewRegexDetector(), zaptest.NewLogger(t))

	out, err := r.Process(context.Background(), "Thank you Mr. Sharma, calling 9876543210 now.", newContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "Mr. Sharma") {
		t.Errorf("person name should be spoken, got %q", out)
	}
	if strings.Contains(out, "9876543210") {
		t.Errorf("phone number leaked: %q", out)
	}
}

func TestRedactForLogIsFullDepth(t *testing.T) {
	r := New(DefaultConfig(), NewRegexDetector(), zaptest.NewLogger(t))

	out := r.RedactForLog("Thank you Mr. Sharma, your account 123456789012 is active.")
	if strings.Contains(out, "123456789012") || strings.Contains(out, "9012") {
		t.Errorf("identifier leaked into log text: %q", out)
	}
	if strings.Contains(out, "Sharma") {
		t.Errorf("allow-list must not apply to the logging destination: %q", out)
	}
	if !strings.Contains(out, entities.RedactionPlaceholder) {
		t.Errorf("expected placeholder in log text, got %q", out)
	}
}

func TestMultipleSpansReplacedWithoutOffsetDrift(t *testing.T) {
	r := New(DefaultConfig(), NewRegexDetector(), zaptest.NewLogger(t))

	in := "Send to priya.s@example.com and confirm on 9876543210, account 12345678901234."
	out, err := r.Process(context.Background(), in, newContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, raw := range []string{"priya.s@example.com", "9876543210", "12345678901234"} {
		if strings.Contains(out, raw) {
			t.Errorf("raw value %q leaked: %q", raw, out)
		}
	}
	if !strings.HasPrefix(out, "Send to ") || !strings.Contains(out, " and confirm on ") {
		t.Errorf("surrounding text damaged by replacement: %q", out)
	}
}

func TestDetectionFailureRedactsEverything(t *testing.T) {
	r := New(DefaultConfig(), failingDetector{}, zaptest.NewLogger(t))

	out, err := r.Process(context.Background(), "My Aadhaar is 1234 5678 9012.", newContext())
	if err != nil {
		t.Fatalf("detection failure must be recovered locally: %v", err)
	}
	if out != entities.RedactionPlaceholder {
		t.Errorf("expected full-utterance redaction, got %q", out)
	}
}

func TestCleanTextUnchanged(t *testing.T) {
	r := New(DefaultConfig(), NewRegexDetector(), zaptest.NewLogger(t))

	in := "Your gold loan application is being reviewed."
	out, err := r.Process(context.Background(), in, newContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != in {
		t.Errorf("clean text should pass unchanged, got %q", out)
	}
}
