package secrets

import (
	"context"
	"fmt"

	"github.com/estensen/chain-dashboard/internal/storage"
)

// ObjectSource reads secrets from an object in a bucket.
type ObjectSource struct {
	Storage storage.Storage
	Bucket  string
	Object  string
}

func (o ObjectSource) Read(ctx context.Context) ([]byte, error) {
	data, err := o.Storage.Download(ctx, o.Object)
	if err != nil {
		return nil, fmt.Errorf("reading secrets object: %w", err)
	}
	return data, nil
}

func (o ObjectSource) String() string {
	return fmt.Sprintf("s3://%s/%s", o.Bucket, o.Object)
}
