package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by the SQL snapshot backends. Each is one row in the
// state(bucket, payload) table.
const (
	BucketItems    = "items"
	BucketSequence = "sequence"
)

// Buckets lists the snapshot buckets in write order.
var Buckets = []string{BucketItems, BucketSequence}

type sequencePayload struct {
	NextID int64 `json:"next_id"`
}

// EncodeBucket serializes one bucket of the snapshot.
func EncodeBucket(snapshot Snapshot, bucket string) ([]byte, error) {
	switch bucket {
	case BucketItems:
		items := snapshot.Items
		if items == nil {
			items = List{}
		}
		return json.Marshal(items)
	case BucketSequence:
		return json.Marshal(sequencePayload{NextID: snapshot.NextID})
	default:
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
}

// DecodeBucket applies a stored payload to the snapshot. Unknown buckets and
// empty payloads are ignored.
func DecodeBucket(snapshot *Snapshot, bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	switch bucket {
	case BucketItems:
		var items List
		if err := json.Unmarshal(payload, &items); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		snapshot.Items = items
	case BucketSequence:
		var seq sequencePayload
		if err := json.Unmarshal(payload, &seq); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		snapshot.NextID = seq.NextID
	}
	return nil
}
