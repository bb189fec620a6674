package cluster

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
)

func TestAssumeRolePolicyDocument(t *testing.T) {
	var doc struct {
		Version   string
		Statement []struct {
			Action    string
			Effect    string
			Principal struct {
				Service string
			}
		}
	}
	if err := json.Unmarshal([]byte(assumeRolePolicyDocument), &doc); err != nil {
		t.Fatalf("Policy document is not valid JSON: %v", err)
	}
	if doc.Version != "2012-10-17" {
		t.Errorf("Unexpected policy version: %s", doc.Version)
	}
	if len(doc.Statement) != 1 {
		t.Fatalf("Expected 1 statement, got %d", len(doc.Statement))
	}
	stmt := doc.Statement[0]
	if stmt.Action != "sts:AssumeRole" {
		t.Errorf("Unexpected action: %s", stmt.Action)
	}
	if stmt.Effect != "Allow" {
		t.Errorf("Unexpected effect: %s", stmt.Effect)
	}
	if stmt.Principal.Service != "redshift.amazonaws.com" {
		t.Errorf("Unexpected principal service: %s", stmt.Principal.Service)
	}
}

func TestIsAWSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			code: "InvalidPermission.Duplicate",
			want: false,
		},
		{
			name: "matching code",
			err:  awserr.New("InvalidPermission.Duplicate", "rule exists", nil),
			code: "InvalidPermission.Duplicate",
			want: true,
		},
		{
			name: "different code",
			err:  awserr.New("AccessDenied", "nope", nil),
			code: "InvalidPermission.Duplicate",
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			code: "InvalidPermission.Duplicate",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAWSError(tt.err, tt.code); got != tt.want {
				t.Errorf("isAWSError(%v, %q) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}
