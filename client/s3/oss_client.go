package s3

import (
	"context"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

var (
	AvatarBucket *oss.Bucket

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
)

// Bootstrap opens the avatar bucket used by GetObject and PutObject.
func Bootstrap(conf Config) error {
	bucket, err := BuildBucket(conf)
	if err != nil {
		return err
	}
	AvatarBucket = bucket
	return nil
}

func BuildBucket(conf Config) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(conf.Endpoint, conf.AccessKey, conf.SecretKey)
	if err != nil {
		return nil, err
	}
	return cli.Bucket(conf.Bucket)
}

func GetObject(ctx context.Context, key string, opts ...oss.Option) (io.ReadCloser, error) {
	span := startSpan(ctx, "get-object", key)
	if span != nil {
		defer span.Finish()
	}
	r, err := AvatarBucket.GetObject(key, opts...)
	if span != nil {
		ext.Error.Set(span, err != nil)
	}
	return r, err
}

func PutObject(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
	span := startSpan(ctx, "put-object", key)
	if span != nil {
		defer span.Finish()
	}
	err := AvatarBucket.PutObject(key, r, opts...)
	if span != nil {
		ext.Error.Set(span, err != nil)
	}
	return err
}

// IsNoSuchKey reports whether err is the service answer for a missing object.
func IsNoSuchKey(err error) bool {
	serErr, ok := err.(oss.ServiceError)
	return ok && serErr.Code == "NoSuchKey"
}

func startSpan(ctx context.Context, operation, key string) opentracing.Span {
	parentSpan := opentracing.SpanFromContext(ctx)
	if parentSpan == nil {
		return nil
	}
	sp := parentSpan.Tracer().StartSpan(operation, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return sp
}
