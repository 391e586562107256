package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
)

// Config kinds stored in the shared config table. The table keys on
// (ConfigType, ConfigName) and keeps the config body as a JSON document,
// so new kinds never need schema changes.
const (
	configTypeActionRule      = "action_rule"
	configTypeActionPerformer = "action_performer"
	configTypeCollaboration   = "threat_exchange_collaboration"
)

// DynamoConfigStore implements the hmaconfig.Store interface on the shared
// DynamoDB config table.
type DynamoConfigStore struct {
	tableName      string
	dynamoDbClient *dynamodb.Client
}

var _ hmaconfig.Store = (*DynamoConfigStore)(nil)

// NewDynamoConfigStore returns a hmaconfig.Store connected to an AWS DynamoDB
// table.
func NewDynamoConfigStore(cfg aws.Config, tableName string, opts ...func(*dynamodb.Options)) *DynamoConfigStore {
	return &DynamoConfigStore{
		tableName:      tableName,
		dynamoDbClient: dynamodb.NewFromConfig(cfg, opts...),
	}
}

type configItem struct {
	ConfigType string `dynamodbav:"ConfigType"`
	ConfigName string `dynamodbav:"ConfigName"`
	ConfigJSON string `dynamodbav:"ConfigJSON"`
}

func (d *DynamoConfigStore) listConfigs(ctx context.Context, configType string) ([]configItem, error) {
	keyEx := expression.Key("ConfigType").Equal(expression.Value(configType))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var items []configItem
	queryPaginator := dynamodb.NewQueryPaginator(d.dynamoDbClient, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		KeyConditionExpression:    expr.KeyCondition(),
	})
	for queryPaginator.HasMorePages() {
		response, err := queryPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying configs: %w", err)
		}
		var page []configItem
		if err := attributevalue.UnmarshalListOfMaps(response.Items, &page); err != nil {
			return nil, fmt.Errorf("parsing query responses: %w", err)
		}
		items = append(items, page...)
	}
	return items, nil
}

func (d *DynamoConfigStore) getConfig(ctx context.Context, configType string, configName string) (configItem, error) {
	response, err := d.dynamoDbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"ConfigType": &types.AttributeValueMemberS{Value: configType},
			"ConfigName": &types.AttributeValueMemberS{Value: configName},
		},
	})
	if err != nil {
		return configItem{}, fmt.Errorf("getting config: %w", err)
	}
	if len(response.Item) == 0 {
		return configItem{}, store.ErrNotFound
	}
	var item configItem
	if err := attributevalue.UnmarshalMap(response.Item, &item); err != nil {
		return configItem{}, fmt.Errorf("parsing config: %w", err)
	}
	return item, nil
}

// putConfig writes one config document. mustNotExist/mustExist guard create
// and update so callers can distinguish the two without a read first.
func (d *DynamoConfigStore) putConfig(ctx context.Context, configType string, configName string, config any, mustNotExist bool, mustExist bool) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	item, err := attributevalue.MarshalMap(configItem{
		ConfigType: configType,
		ConfigName: configName,
		ConfigJSON: string(configJSON),
	})
	if err != nil {
		return fmt.Errorf("serializing item: %w", err)
	}

	input := &dynamodb.PutItemInput{TableName: aws.String(d.tableName), Item: item}
	var cond expression.ConditionBuilder
	if mustNotExist {
		cond = expression.AttributeNotExists(expression.Name("ConfigType"))
	}
	if mustExist {
		cond = expression.AttributeExists(expression.Name("ConfigType"))
	}
	if mustNotExist || mustExist {
		expr, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("building condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	_, err = d.dynamoDbClient.PutItem(ctx, input)
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		if mustNotExist {
			return store.ErrExists
		}
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storing config: %w", err)
	}
	return nil
}

func (d *DynamoConfigStore) deleteConfig(ctx context.Context, configType string, configName string) error {
	_, err := d.dynamoDbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"ConfigType": &types.AttributeValueMemberS{Value: configType},
			"ConfigName": &types.AttributeValueMemberS{Value: configName},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting config: %w", err)
	}
	return nil
}

// ListActionRules implements hmaconfig.Store.
func (d *DynamoConfigStore) ListActionRules(ctx context.Context) ([]hmaconfig.ActionRule, error) {
	items, err := d.listConfigs(ctx, configTypeActionRule)
	if err != nil {
		return nil, err
	}
	rules := make([]hmaconfig.ActionRule, 0, len(items))
	for _, item := range items {
		var rule hmaconfig.ActionRule
		if err := json.Unmarshal([]byte(item.ConfigJSON), &rule); err != nil {
			return nil, fmt.Errorf("parsing action rule %q: %w", item.ConfigName, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// CreateActionRule implements hmaconfig.Store.
func (d *DynamoConfigStore) CreateActionRule(ctx context.Context, rule hmaconfig.ActionRule) error {
	return d.putConfig(ctx, configTypeActionRule, rule.Name, rule, true, false)
}

// UpdateActionRule implements hmaconfig.Store.
func (d *DynamoConfigStore) UpdateActionRule(ctx context.Context, rule hmaconfig.ActionRule) error {
	return d.putConfig(ctx, configTypeActionRule, rule.Name, rule, false, true)
}

// DeleteActionRule implements hmaconfig.Store.
func (d *DynamoConfigStore) DeleteActionRule(ctx context.Context, name string) error {
	return d.deleteConfig(ctx, configTypeActionRule, name)
}

// ListActionPerformers implements hmaconfig.Store.
func (d *DynamoConfigStore) ListActionPerformers(ctx context.Context) ([]hmaconfig.ActionPerformer, error) {
	items, err := d.listConfigs(ctx, configTypeActionPerformer)
	if err != nil {
		return nil, err
	}
	performers := make([]hmaconfig.ActionPerformer, 0, len(items))
	for _, item := range items {
		var performer hmaconfig.ActionPerformer
		if err := json.Unmarshal([]byte(item.ConfigJSON), &performer); err != nil {
			return nil, fmt.Errorf("parsing action performer %q: %w", item.ConfigName, err)
		}
		performers = append(performers, performer)
	}
	return performers, nil
}

// CreateActionPerformer implements hmaconfig.Store.
func (d *DynamoConfigStore) CreateActionPerformer(ctx context.Context, performer hmaconfig.ActionPerformer) error {
	return d.putConfig(ctx, configTypeActionPerformer, performer.Name, performer, true, false)
}

// UpdateActionPerformer implements hmaconfig.Store.
func (d *DynamoConfigStore) UpdateActionPerformer(ctx context.Context, performer hmaconfig.ActionPerformer) error {
	return d.putConfig(ctx, configTypeActionPerformer, performer.Name, performer, false, true)
}

// DeleteActionPerformer implements hmaconfig.Store.
func (d *DynamoConfigStore) DeleteActionPerformer(ctx context.Context, name string) error {
	return d.deleteConfig(ctx, configTypeActionPerformer, name)
}

// ListCollaborations implements hmaconfig.Store.
func (d *DynamoConfigStore) ListCollaborations(ctx context.Context) ([]hmaconfig.CollaborationConfig, error) {
	items, err := d.listConfigs(ctx, configTypeCollaboration)
	if err != nil {
		return nil, err
	}
	collabs := make([]hmaconfig.CollaborationConfig, 0, len(items))
	for _, item := range items {
		var collab hmaconfig.CollaborationConfig
		if err := json.Unmarshal([]byte(item.ConfigJSON), &collab); err != nil {
			return nil, fmt.Errorf("parsing collaboration %q: %w", item.ConfigName, err)
		}
		collabs = append(collabs, collab)
	}
	return collabs, nil
}

// GetCollaboration implements hmaconfig.Store.
func (d *DynamoConfigStore) GetCollaboration(ctx context.Context, privacyGroupID string) (hmaconfig.CollaborationConfig, error) {
	item, err := d.getConfig(ctx, configTypeCollaboration, privacyGroupID)
	if err != nil {
		return hmaconfig.CollaborationConfig{}, err
	}
	var collab hmaconfig.CollaborationConfig
	if err := json.Unmarshal([]byte(item.ConfigJSON), &collab); err != nil {
		return hmaconfig.CollaborationConfig{}, fmt.Errorf("parsing collaboration %q: %w", privacyGroupID, err)
	}
	return collab, nil
}

// PutCollaboration implements hmaconfig.Store.
func (d *DynamoConfigStore) PutCollaboration(ctx context.Context, collab hmaconfig.CollaborationConfig) error {
	return d.putConfig(ctx, configTypeCollaboration, collab.PrivacyGroupID, collab, false, false)
}
