package verifier

import (
	"strings"
	"testing"
)

func TestExtractVerificationID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "query param",
			in:   "https://services.sheerid.com/verify/632b2b8c6c8b/?verificationId=68b1c2d3e4f5a6b7c8d9e0f1",
			want: "68b1c2d3e4f5a6b7c8d9e0f1",
		},
		{
			name: "query param among others",
			in:   "https://services.sheerid.com/verify/632b2b8c6c8b/?locale=en_US&verificationId=68b1c2d3e4f5a6b7c8d9e0f1",
			want: "68b1c2d3e4f5a6b7c8d9e0f1",
		},
		{
			name: "rest path",
			in:   "https://my.sheerid.com/rest/v2/verification/68b1c2d3e4f5a6b7c8d9e0f1",
			want: "68b1c2d3e4f5a6b7c8d9e0f1",
		},
		{
			name: "bare id",
			in:   "68b1c2d3e4f5a6b7c8d9e0f1",
			want: "68b1c2d3e4f5a6b7c8d9e0f1",
		},
		{
			name: "no id",
			in:   "https://example.com/student-deal",
			want: "",
		},
		{
			name: "id too short",
			in:   "https://services.sheerid.com/verify/632b/?verificationId=68b1c2d3",
			want: "",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVerificationID(tt.in); got != tt.want {
				t.Errorf("ExtractVerificationID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateApplicant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		a, err := GenerateApplicant()
		if err != nil {
			t.Fatalf("generate applicant: %v", err)
		}
		if a.FirstName == "" || a.LastName == "" {
			t.Fatal("expected a populated name")
		}
		if !strings.Contains(a.Email, "@") {
			t.Errorf("unexpected email %q", a.Email)
		}
		if a.BirthDate == "" {
			t.Error("expected a birth date")
		}
		seen[a.Email] = true
	}
	if len(seen) < 2 {
		t.Error("expected generated applicants to vary")
	}
}
