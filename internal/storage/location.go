package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLocation reports an unparseable storage reference.
var ErrInvalidLocation = errors.New("invalid storage location")

// Location identifies an object by bucket and key.
type Location struct {
	Bucket string
	Key    string
}

// S3URI renders the location as an s3:// URI.
func (l Location) S3URI() string {
	return "s3://" + l.Bucket + "/" + l.Key
}

// HTTPSURL renders the location as a virtual-hosted-style HTTPS URL.
func (l Location) HTTPSURL(region string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", l.Bucket, region, l.Key)
}

// ResolveLocation parses a storage reference into a bucket and key. Accepted
// forms: a bare key (resolved against defaultBucket), an s3://bucket/key URI,
// or an https://bucket.s3.<region>.amazonaws.com/key URL.
func ResolveLocation(value, defaultBucket string) (Location, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Location{}, fmt.Errorf("%w: empty reference", ErrInvalidLocation)
	}

	if !strings.Contains(value, "://") {
		return newLocation(defaultBucket, value)
	}

	u, err := url.Parse(value)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, value)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return newLocation(u.Host, u.Path)
	case "https":
		if idx := strings.Index(u.Host, ".s3"); idx > 0 {
			return newLocation(u.Host[:idx], u.Path)
		}
	}
	return Location{}, fmt.Errorf("%w: unsupported URL %q", ErrInvalidLocation, value)
}

func newLocation(bucket, rawKey string) (Location, error) {
	key := strings.TrimPrefix(rawKey, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("%w: missing bucket", ErrInvalidLocation)
	}
	if key == "" {
		return Location{}, fmt.Errorf("%w: missing key", ErrInvalidLocation)
	}
	return Location{Bucket: bucket, Key: key}, nil
}
