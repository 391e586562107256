package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

// Key layout of the pipeline datastore table. All record kinds for one piece
// of content share a partition so the content view is a single query.
//
//	content:      PK=c#<content_id>  SK=content_object
//	match:        PK=c#<content_id>  SK=match#<source>#<signal_id>
//	action event: PK=c#<content_id>  SK=action#<rfc3339>#<label>
//	stat counter: PK=stats           SK=measure#<measure>
const (
	contentObjectSK = "content_object"
	matchSKPrefix   = "match#"
	actionSKPrefix  = "action#"
	statsPK         = "stats"
	measureSKPrefix = "measure#"
)

func contentPK(contentID string) string {
	return "c#" + contentID
}

func matchSK(signalSource string, signalID string) string {
	return matchSKPrefix + signalSource + "#" + signalID
}

// DynamoRecordStore implements the records.Store interface on a DynamoDB
// table.
type DynamoRecordStore struct {
	tableName      string
	dynamoDbClient *dynamodb.Client
}

var _ records.Store = (*DynamoRecordStore)(nil)

// NewDynamoRecordStore returns a records.Store connected to an AWS DynamoDB
// table.
func NewDynamoRecordStore(cfg aws.Config, tableName string, opts ...func(*dynamodb.Options)) *DynamoRecordStore {
	return &DynamoRecordStore{
		tableName:      tableName,
		dynamoDbClient: dynamodb.NewFromConfig(cfg, opts...),
	}
}

type contentItem struct {
	PK               string            `dynamodbav:"PK"`
	SK               string            `dynamodbav:"SK"`
	ContentType      string            `dynamodbav:"ContentType"`
	RefType          string            `dynamodbav:"RefType"`
	Ref              string            `dynamodbav:"Ref"`
	SubmittedAt      int64             `dynamodbav:"SubmittedAt"`
	AdditionalFields map[string]string `dynamodbav:"AdditionalFields,omitempty"`
}

type matchItem struct {
	PK                   string `dynamodbav:"PK"`
	SK                   string `dynamodbav:"SK"`
	ContentID            string `dynamodbav:"ContentID"`
	SignalID             string `dynamodbav:"SignalID"`
	SignalSource         string `dynamodbav:"SignalSource"`
	SignalHash           string `dynamodbav:"SignalHash"`
	MatchedAt            int64  `dynamodbav:"MatchedAt"`
	PendingOpinionChange string `dynamodbav:"PendingOpinionChange,omitempty"`
}

type actionEventItem struct {
	PK          string   `dynamodbav:"PK"`
	SK          string   `dynamodbav:"SK"`
	ActionLabel string   `dynamodbav:"ActionLabel"`
	PerformedAt int64    `dynamodbav:"PerformedAt"`
	ActionRules []string `dynamodbav:"ActionRules,omitempty"`
}

type countItem struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Count int64  `dynamodbav:"Count"`
}

// PutContent implements records.Store.
func (d *DynamoRecordStore) PutContent(ctx context.Context, rec records.ContentRecord) error {
	item, err := attributevalue.MarshalMap(contentItem{
		PK:               contentPK(rec.ContentID),
		SK:               contentObjectSK,
		ContentType:      string(rec.ContentType),
		RefType:          string(rec.RefType),
		Ref:              rec.Ref,
		SubmittedAt:      rec.SubmittedAt.Unix(),
		AdditionalFields: rec.AdditionalFields,
	})
	if err != nil {
		return fmt.Errorf("serializing item: %w", err)
	}
	_, err = d.dynamoDbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName), Item: item,
	})
	if err != nil {
		return fmt.Errorf("storing item: %w", err)
	}
	return nil
}

// GetContent implements records.Store.
func (d *DynamoRecordStore) GetContent(ctx context.Context, contentID string) (records.ContentRecord, error) {
	response, err := d.dynamoDbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: contentPK(contentID)},
			"SK": &types.AttributeValueMemberS{Value: contentObjectSK},
		},
	})
	if err != nil {
		return records.ContentRecord{}, fmt.Errorf("getting item: %w", err)
	}
	if len(response.Item) == 0 {
		return records.ContentRecord{}, store.ErrNotFound
	}
	var item contentItem
	if err := attributevalue.UnmarshalMap(response.Item, &item); err != nil {
		return records.ContentRecord{}, fmt.Errorf("parsing item: %w", err)
	}
	return records.ContentRecord{
		ContentID:        contentID,
		ContentType:      records.ContentType(item.ContentType),
		RefType:          records.ContentRefType(item.RefType),
		Ref:              item.Ref,
		SubmittedAt:      time.Unix(item.SubmittedAt, 0).UTC(),
		AdditionalFields: item.AdditionalFields,
	}, nil
}

// ListMatches implements records.Store.
func (d *DynamoRecordStore) ListMatches(ctx context.Context, contentID string) ([]records.MatchRecord, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(contentPK(contentID))).
		And(expression.Key("SK").BeginsWith(matchSKPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var matches []records.MatchRecord
	queryPaginator := dynamodb.NewQueryPaginator(d.dynamoDbClient, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		KeyConditionExpression:    expr.KeyCondition(),
	})
	for queryPaginator.HasMorePages() {
		response, err := queryPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying matches: %w", err)
		}
		var page []matchItem
		if err := attributevalue.UnmarshalListOfMaps(response.Items, &page); err != nil {
			return nil, fmt.Errorf("parsing query responses: %w", err)
		}
		for _, item := range page {
			matches = append(matches, matchRecordFromItem(item))
		}
	}
	return matches, nil
}

// RecentMatches implements records.Store. Match records are spread across
// content partitions, so listing them is a filtered scan; acceptable at the
// review-UI page sizes this serves.
func (d *DynamoRecordStore) RecentMatches(ctx context.Context, limit int) ([]records.MatchRecord, error) {
	filter := expression.BeginsWith(expression.Name("SK"), matchSKPrefix)
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("building scan: %w", err)
	}

	var matches []records.MatchRecord
	scanPaginator := dynamodb.NewScanPaginator(d.dynamoDbClient, &dynamodb.ScanInput{
		TableName:                 aws.String(d.tableName),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		FilterExpression:          expr.Filter(),
	})
	for scanPaginator.HasMorePages() {
		response, err := scanPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanning matches: %w", err)
		}
		var page []matchItem
		if err := attributevalue.UnmarshalListOfMaps(response.Items, &page); err != nil {
			return nil, fmt.Errorf("parsing scan responses: %w", err)
		}
		for _, item := range page {
			matches = append(matches, matchRecordFromItem(item))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MatchedAt.After(matches[j].MatchedAt) })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// SetPendingOpinionChange implements records.Store.
func (d *DynamoRecordStore) SetPendingOpinionChange(ctx context.Context, contentID string, signalSource string, signalID string, change records.OpinionChange) error {
	update := expression.Set(expression.Name("PendingOpinionChange"), expression.Value(string(change)))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	_, err = d.dynamoDbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: contentPK(contentID)},
			"SK": &types.AttributeValueMemberS{Value: matchSK(signalSource, signalID)},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating match: %w", err)
	}
	return nil
}

// ListActionEvents implements records.Store.
func (d *DynamoRecordStore) ListActionEvents(ctx context.Context, contentID string) ([]records.ActionEvent, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(contentPK(contentID))).
		And(expression.Key("SK").BeginsWith(actionSKPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var events []records.ActionEvent
	queryPaginator := dynamodb.NewQueryPaginator(d.dynamoDbClient, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		KeyConditionExpression:    expr.KeyCondition(),
	})
	for queryPaginator.HasMorePages() {
		response, err := queryPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying action events: %w", err)
		}
		var page []actionEventItem
		if err := attributevalue.UnmarshalListOfMaps(response.Items, &page); err != nil {
			return nil, fmt.Errorf("parsing query responses: %w", err)
		}
		for _, item := range page {
			events = append(events, records.ActionEvent{
				ContentID:   contentID,
				ActionLabel: item.ActionLabel,
				PerformedAt: time.Unix(item.PerformedAt, 0).UTC(),
				ActionRules: item.ActionRules,
			})
		}
	}
	return events, nil
}

// IncrementCount implements records.Store. ADD creates the counter item on
// first use.
func (d *DynamoRecordStore) IncrementCount(ctx context.Context, measure records.Measure, delta int64) error {
	update := expression.Add(expression.Name("Count"), expression.Value(delta))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	_, err = d.dynamoDbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: statsPK},
			"SK": &types.AttributeValueMemberS{Value: measureSKPrefix + string(measure)},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("updating counter: %w", err)
	}
	return nil
}

// GetCounts implements records.Store.
func (d *DynamoRecordStore) GetCounts(ctx context.Context) (map[records.Measure]int64, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(statsPK))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	counts := map[records.Measure]int64{}
	queryPaginator := dynamodb.NewQueryPaginator(d.dynamoDbClient, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		KeyConditionExpression:    expr.KeyCondition(),
	})
	for queryPaginator.HasMorePages() {
		response, err := queryPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying counters: %w", err)
		}
		var page []countItem
		if err := attributevalue.UnmarshalListOfMaps(response.Items, &page); err != nil {
			return nil, fmt.Errorf("parsing query responses: %w", err)
		}
		for _, item := range page {
			measure := records.Measure(strings.TrimPrefix(item.SK, measureSKPrefix))
			counts[measure] = item.Count
		}
	}
	return counts, nil
}

func matchRecordFromItem(item matchItem) records.MatchRecord {
	return records.MatchRecord{
		ContentID:            item.ContentID,
		SignalID:             item.SignalID,
		SignalSource:         item.SignalSource,
		SignalHash:           item.SignalHash,
		MatchedAt:            time.Unix(item.MatchedAt, 0).UTC(),
		PendingOpinionChange: records.OpinionChange(item.PendingOpinionChange),
	}
}
