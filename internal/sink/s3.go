package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/waveacq/rtadp/internal/cmn"
)

// S3 uploads each msgp-encoded Batch as an object, mirroring the
// teacher's aws-sdk-go-v2/service/s3 backend-provider pattern
// (ais/prxs3.go) for deployments that archive results centrally.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
	seq    atomic.Uint64
}

// NewS3 constructs an S3 sink against bucket, keying objects under
// prefix. Uses the default AWS credential chain (environment, shared
// config, IMDS), same as the teacher's backend construction.
func NewS3(ctx context.Context, bucket, prefix string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, cmn.WrapError(cmn.KindConfigurationInvalid, err, "load aws config")
	}
	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

// WriteBatch uploads the msgp-encoded batch as a single object.
func (p *S3) WriteBatch(ctx context.Context, managerName string, batch Batch) error {
	encoded, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	seq := p.seq.Add(1)
	key := fmt.Sprintf("%s/%s-%020d.msgp", p.prefix, managerName, seq)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(encoded),
	})
	if err != nil {
		return cmn.WrapError(cmn.KindTransportFatal, err, "put batch object")
	}
	return nil
}

// Close is a no-op: the S3 client holds no long-lived connection to
// release.
func (p *S3) Close() error { return nil }
