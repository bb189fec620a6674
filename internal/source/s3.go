// Package source reads raw JSON-line records straight from object
// storage. The pipeline itself never parses source files (the warehouse's
// bulk loader does); this exists so an operator can eyeball the record
// shape and confirm the configured locations before a full COPY.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Record is one decoded JSON-line record.
type Record map[string]any

// ParseS3URI splits an s3://bucket/prefix URI into bucket and prefix.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3:// URI: %s", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in URI: %s", uri)
	}
	return bucket, prefix, nil
}

// DecodeRecords reads up to limit JSON records from r, one record per
// line. Blank lines are skipped; a malformed line is an error, since the
// point of sampling is to find out about such lines before the bulk load
// does.
func DecodeRecords(r io.Reader, limit int) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	for line := 1; scanner.Scan() && len(records) < limit; line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("malformed record on line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// Sampler fetches sample records from S3.
type Sampler struct {
	s3 *s3.S3
}

// NewSampler creates a Sampler using the SDK's default credential chain.
func NewSampler(region string) (*Sampler, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &Sampler{s3: s3.New(sess)}, nil
}

// Sample returns up to limit records from the first object found under
// the given s3:// URI.
func (s *Sampler) Sample(uri string, limit int) ([]Record, error) {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	listed, err := s.s3.ListObjectsV2(&s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(16),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", uri, err)
	}

	for _, obj := range listed.Contents {
		if aws.Int64Value(obj.Size) == 0 {
			continue
		}
		out, err := s.s3.GetObject(&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    obj.Key,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", aws.StringValue(obj.Key), err)
		}
		defer out.Body.Close()

		records, err := DecodeRecords(out.Body, limit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", aws.StringValue(obj.Key), err)
		}
		return records, nil
	}
	return nil, fmt.Errorf("no non-empty objects under %s", uri)
}
