package objstore

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// S3Config locates and authenticates against an S3-compatible store
type S3Config struct {
	Endpoint     string // empty means AWS
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Bucket       string
	PathStyle    bool
	HTTPClient   *http.Client
}

// S3 is a Store backed by one bucket of an S3-compatible service
type S3 struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

// NewS3 builds the client. Static credentials are used when an access key is
// configured, the default AWS credential chain otherwise.
func NewS3(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("objstore: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)))
	}
	if cfg.HTTPClient != nil {
		loaders = append(loaders, awsconfig.WithHTTPClient(cfg.HTTPClient))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return &S3{client: client, bucket: cfg.Bucket, log: log}, nil
}

// Bucket reports the bucket this store works on
func (s *S3) Bucket() string {
	return s.bucket
}

func notFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (s *S3) wrap(err error, op, key string) error {
	if notFound(err) {
		return errors.Wrapf(ErrNotFound, "s3://%s/%s", s.bucket, key)
	}
	return errors.Wrapf(err, "%s s3://%s/%s", op, s.bucket, key)
}

// Open streams the object at key
func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap(err, "get", key)
	}
	s.log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("object opened")
	return out.Body, nil
}

// Get reads the whole object at key
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "read s3://%s/%s", s.bucket, key)
	}
	return data, nil
}

// Head describes the object at key
func (s *S3) Head(ctx context.Context, key string) (Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Info{}, s.wrap(err, "head", key)
	}
	return Info{Key: key, Size: aws.ToInt64(out.ContentLength), Metadata: out.Metadata}, nil
}

// Put writes body at key
func (s *S3) Put(ctx context.Context, key string, body []byte, opts ...PutOption) error {
	o := buildPutOptions(opts)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(o.ContentType),
		Metadata:      o.Metadata,
	}
	if o.ACL != "" {
		in.ACL = types.ObjectCannedACL(o.ACL)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return s.wrap(err, "put", key)
	}
	s.log.Info().Str("bucket", s.bucket).Str("key", key).Int("size", len(body)).
		Str("acl", string(o.ACL)).Msg("object uploaded")
	return nil
}
