package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// StreamWatcher polls the todos table's DynamoDB stream and reports when any
// record belonging to a given user partition changes. It deliberately carries
// no record payloads: the sync core re-reads the full partition on every
// change, so the watcher only needs to answer "did anything change?".
type StreamWatcher struct {
	db           *dynamodb.Client
	streams      *dynamodbstreams.Client
	tableName    string
	pollInterval time.Duration
}

func NewStreamWatcher(db *dynamodb.Client, streams *dynamodbstreams.Client, tableName string, pollInterval time.Duration) *StreamWatcher {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &StreamWatcher{db: db, streams: streams, tableName: tableName, pollInterval: pollInterval}
}

// Watch blocks until ctx is cancelled, invoking onChange after every poll
// that saw at least one stream record for userID's partition. Records
// already in the stream when Watch starts are skipped (iterators start at
// LATEST), matching subscribe-then-snapshot semantics: the caller performs
// its own initial read.
func (w *StreamWatcher) Watch(ctx context.Context, userID string, onChange func()) error {
	streamARN, err := w.streamARN(ctx)
	if err != nil {
		return err
	}

	iterators := make(map[string]*string)
	if err := w.refreshShards(ctx, streamARN, iterators); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		changed := false
		for shardID, iter := range iterators {
			if iter == nil {
				continue
			}
			out, err := w.streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
				ShardIterator: iter,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				var expired *streamtypes.ExpiredIteratorException
				var trimmed *streamtypes.TrimmedDataAccessException
				if errors.As(err, &expired) || errors.As(err, &trimmed) {
					iterators[shardID] = w.shardIterator(ctx, streamARN, shardID, streamtypes.ShardIteratorTypeLatest)
					continue
				}
				slog.Warn("stream poll failed", "shard", shardID, "err", err)
				continue
			}
			for _, rec := range out.Records {
				if recordTouchesUser(rec, userID) {
					changed = true
					break
				}
			}
			// A nil NextShardIterator means the shard is closed.
			iterators[shardID] = out.NextShardIterator
		}

		if changed {
			onChange()
		}

		// Pick up newly split shards; closed shards are dropped.
		if err := w.refreshShards(ctx, streamARN, iterators); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (w *StreamWatcher) streamARN(ctx context.Context) (string, error) {
	out, err := w.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(w.tableName),
	})
	if err != nil {
		return "", fmt.Errorf("describe table %s: %w", w.tableName, err)
	}
	if out.Table.LatestStreamArn == nil {
		return "", fmt.Errorf("table %s has no stream enabled", w.tableName)
	}
	return *out.Table.LatestStreamArn, nil
}

// refreshShards reconciles the iterator map with the stream's current shard
// list. Shards already tracked keep their iterator; shards appearing later
// start at TRIM_HORIZON so no records are lost across a split.
func (w *StreamWatcher) refreshShards(ctx context.Context, streamARN string, iterators map[string]*string) error {
	out, err := w.streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
		StreamArn: aws.String(streamARN),
	})
	if err != nil {
		return fmt.Errorf("describe stream: %w", err)
	}

	live := make(map[string]struct{}, len(out.StreamDescription.Shards))
	first := len(iterators) == 0
	for _, shard := range out.StreamDescription.Shards {
		shardID := aws.ToString(shard.ShardId)
		live[shardID] = struct{}{}
		if _, known := iterators[shardID]; known {
			continue
		}
		iterType := streamtypes.ShardIteratorTypeTrimHorizon
		if first {
			iterType = streamtypes.ShardIteratorTypeLatest
		}
		iterators[shardID] = w.shardIterator(ctx, streamARN, shardID, iterType)
	}
	for shardID, iter := range iterators {
		if _, ok := live[shardID]; !ok || iter == nil {
			delete(iterators, shardID)
		}
	}
	return nil
}

func (w *StreamWatcher) shardIterator(ctx context.Context, streamARN, shardID string, iterType streamtypes.ShardIteratorType) *string {
	out, err := w.streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(streamARN),
		ShardId:           aws.String(shardID),
		ShardIteratorType: iterType,
	})
	if err != nil {
		slog.Warn("could not acquire shard iterator", "shard", shardID, "err", err)
		return nil
	}
	return out.ShardIterator
}

// recordTouchesUser reports whether a stream record belongs to userID's
// partition. user_id is a plain attribute (the table key is todo_id), so it
// has to be read from the record images.
func recordTouchesUser(rec streamtypes.Record, userID string) bool {
	if rec.Dynamodb == nil {
		return false
	}
	for _, image := range []map[string]streamtypes.AttributeValue{rec.Dynamodb.NewImage, rec.Dynamodb.OldImage} {
		if image == nil {
			continue
		}
		if s, ok := image["user_id"].(*streamtypes.AttributeValueMemberS); ok && s.Value == userID {
			return true
		}
	}
	return false
}
