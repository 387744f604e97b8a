package storage

import (
	"fmt"
	"strings"
)

// Location formats an object address as s3://bucket/key.
func Location(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, strings.TrimPrefix(key, "/"))
}

// ParseLocation splits an s3://bucket/key address. When bucket is non-empty
// the location must point into it.
func ParseLocation(location, bucket string) (string, error) {
	if !strings.HasPrefix(location, "s3://") {
		return "", fmt.Errorf("invalid s3 location")
	}
	rest := strings.TrimPrefix(location, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("invalid s3 location")
	}
	if bucket != "" && parts[0] != bucket {
		return "", fmt.Errorf("s3 bucket mismatch")
	}
	if len(parts) == 1 || strings.TrimPrefix(parts[1], "/") == "" {
		return "", fmt.Errorf("s3 key missing")
	}
	return strings.TrimPrefix(parts[1], "/"), nil
}
