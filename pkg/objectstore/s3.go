package objectstore

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/logger"
)

// S3Store serves objects from an S3 bucket. Get returns byte streams; callers
// that need the whole payload buffer it through GetResult.Bytes.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3Config configures an S3Store.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

// NewS3Store creates a store backed by an S3 bucket using the ambient AWS
// credential chain.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.Get().With(zap.String("component", "s3_store"), zap.String("bucket", cfg.Bucket)),
	}, nil
}

func (s *S3Store) key(location string) string {
	if s.prefix == "" {
		return location
	}
	return path.Join(s.prefix, location)
}

// location converts an S3 key back to a store-relative location, the inverse
// of key. List uses it so listed metadata round-trips through Get and Head.
func (s *S3Store) location(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

// Get opens the object as a byte stream.
func (s *S3Store) Get(ctx context.Context, location string) (*GetResult, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(location)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to get object %s", location)
	}

	meta := ObjectMeta{
		Location: location,
		Size:     aws.ToInt64(out.ContentLength),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}

	s.logger.Debug("opened object stream",
		zap.String("location", location),
		zap.Int64("size", meta.Size))

	return &GetResult{Meta: meta, stream: out.Body}, nil
}

// Head returns object metadata without fetching the payload.
func (s *S3Store) Head(ctx context.Context, location string) (ObjectMeta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(location)),
	})
	if err != nil {
		return ObjectMeta{}, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to head object %s", location)
	}

	meta := ObjectMeta{
		Location: location,
		Size:     aws.ToInt64(out.ContentLength),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return meta, nil
}

// List returns metadata for every object under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	var objects []ObjectMeta

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to list objects under %s", prefix)
		}

		for _, obj := range page.Contents {
			meta := ObjectMeta{
				Location: s.location(aws.ToString(obj.Key)),
				Size:     aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				meta.LastModified = *obj.LastModified
			}
			objects = append(objects, meta)
		}
	}

	return objects, nil
}
