// Package images generates short-lived signed URLs for product images
// stored in S3.
package images

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Signer exchanges a stored image URL for one a browser may fetch.
type Signer interface {
	SignURL(ctx context.Context, rawURL string) (string, error)
}

// NoopSigner returns stored URLs unchanged. Used when no S3 bucket is
// configured, e.g. when images point at a public CDN.
type NoopSigner struct{}

func (NoopSigner) SignURL(_ context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

var _ Signer = (*S3Signer)(nil)

// S3Signer presigns GET requests for objects under a single bucket.
type S3Signer struct {
	presign *s3.PresignClient
	bucket  string
	baseURL string
	expiry  time.Duration
}

// NewS3Signer creates a signer for the given bucket. baseURL is the public
// prefix stored in product rows (e.g. https://bucket.s3.region.amazonaws.com);
// only URLs under it are signed.
func NewS3Signer(ctx context.Context, bucket, region, baseURL string, expiry time.Duration) (*S3Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	return &S3Signer{
		presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		expiry:  expiry,
	}, nil
}

// SignURL presigns the object behind rawURL. URLs outside the configured
// base are returned unchanged.
func (s *S3Signer) SignURL(ctx context.Context, rawURL string) (string, error) {
	key, ok := strings.CutPrefix(rawURL, s.baseURL)
	if !ok || key == "" {
		return rawURL, nil
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String("inline"),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", key)
	}
	return req.URL, nil
}

// SignAll signs a batch of URLs concurrently. A URL that fails to sign
// falls back to its stored value; signing problems never fail a catalog
// response.
func SignAll(ctx context.Context, signer Signer, urls []string) []string {
	signed := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, raw := range urls {
		g.Go(func() error {
			u, err := signer.SignURL(gctx, raw)
			if err != nil {
				zctx.From(ctx).Warn("Image URL signing failed",
					zap.String("url", raw),
					zap.Error(err),
				)
				u = raw
			}
			signed[i] = u
			return nil
		})
	}
	_ = g.Wait()
	return signed
}
