// Package storage writes payment screenshots to the S3-compatible blob store.
package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cahcet/eloquence-api/internal/config"
)

const defaultExtension = "jpg"

var extensionPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type R2 struct {
	api     ObjectAPI
	bucket  string
	cdnHost string
}

// NewR2Client builds an S3 client against the account's R2 endpoint.
func NewR2Client(conf *config.R2Config) *s3.Client {
	return s3.New(s3.Options{
		Region:       "auto",
		BaseEndpoint: aws.String(conf.Endpoint()),
		Credentials:  credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
	})
}

func NewR2(api ObjectAPI, bucket, cdnHost string) *R2 {
	return &R2{
		api:     api,
		bucket:  bucket,
		cdnHost: strings.TrimSuffix(cdnHost, "/"),
	}
}

func (r *R2) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("r.api.PutObject(%s) -> %w", key, err)
	}

	return nil
}

func (r *R2) Delete(ctx context.Context, key string) error {
	_, err := r.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("r.api.DeleteObject(%s) -> %w", key, err)
	}

	return nil
}

// PublicURL is the CDN address the object is served from.
func (r *R2) PublicURL(key string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(r.cdnHost, "https://"), "http://")
	return fmt.Sprintf("https://%s/%s", host, key)
}

// NewObjectKey returns prefix/<unixMillis>_<base36 random>.<ext>. The random
// part carries 64 bits from crypto/rand.
func NewObjectKey(prefix, fileName string, now time.Time) (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)

	name := fmt.Sprintf("%d_%s.%s", now.UnixMilli(), suffix, Extension(fileName))
	if prefix == "" {
		return name, nil
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name, nil
}

// Extension is the lower-cased last dot segment of fileName, or jpg when that is
// missing or not purely alphanumeric.
func Extension(fileName string) string {
	i := strings.LastIndex(fileName, ".")
	if i < 0 {
		return defaultExtension
	}
	ext := strings.ToLower(fileName[i+1:])
	if !extensionPattern.MatchString(ext) {
		return defaultExtension
	}
	return ext
}
