package config

import (
	"reflect"
	"strings"
	"testing"
)

func fullS3() S3Config {
	return S3Config{
		Endpoint:        "https://s3.eu-central-1.amazonaws.com",
		Region:          "eu-central-1",
		Bucket:          "coach-hub-archive",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}
}

func TestS3ConfigStates(t *testing.T) {
	tests := []struct {
		name        string
		cfg         S3Config
		wantMissing []string
		wantLevel   string
		wantCode    string
	}{
		{
			name:        "empty",
			cfg:         S3Config{},
			wantMissing: []string{"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"},
			wantLevel:   "INFO",
			wantCode:    "s3_not_configured",
		},
		{
			name:        "partial",
			cfg:         S3Config{Endpoint: "https://s3.eu-central-1.amazonaws.com", Bucket: "coach-hub-archive"},
			wantMissing: []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"},
			wantLevel:   "WARN",
			wantCode:    "s3_partial_config",
		},
		{
			name:        "whitespace counts as missing",
			cfg:         S3Config{Endpoint: "  ", Region: "eu", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"},
			wantMissing: []string{"S3_ENDPOINT"},
			wantLevel:   "WARN",
			wantCode:    "s3_partial_config",
		},
		{
			name:        "ready",
			cfg:         fullS3(),
			wantMissing: []string{},
			wantLevel:   "INFO",
			wantCode:    "s3_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.MissingRequired(); !reflect.DeepEqual(got, tt.wantMissing) {
				t.Errorf("expected missing %v, got %v", tt.wantMissing, got)
			}
			if got := tt.cfg.IsConfigured(); got != (len(tt.wantMissing) == 0) {
				t.Errorf("unexpected IsConfigured=%v", got)
			}
			level, code, _ := tt.cfg.Diagnostics()
			if level != tt.wantLevel || code != tt.wantCode {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantLevel, tt.wantCode, level, code)
			}
		})
	}
}

func TestDiagnosticsSummaryHidesSecrets(t *testing.T) {
	summary := fullS3().DiagnosticsSummary()
	if strings.Contains(summary, "=key ") || strings.Contains(summary, "=secret") {
		t.Fatalf("summary leaks credentials: %s", summary)
	}
	if !strings.Contains(summary, "access_key_id=set") || !strings.Contains(summary, "bucket=coach-hub-archive") {
		t.Fatalf("unexpected summary: %s", summary)
	}
	if !strings.Contains((S3Config{}).DiagnosticsSummary(), "endpoint=-") {
		t.Fatal("expected dash for empty endpoint")
	}
}
