package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/pkg/logger"
)

const (
	userEntityType = "USER"
	batchGetLimit  = 100
)

// DynamoAPI is the subset of the DynamoDB client the store uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// dynamoUser is the item layout: PK=USER#<id> plus the flattened record
type dynamoUser struct {
	PK         string `dynamodbav:"PK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.User
}

// DynamoStore keeps one item per user in a single table. DynamoDB has no
// offset pagination, so List scans and pages in memory.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	logger    *zap.Logger
}

// NewDynamoStore creates a store on top of an existing client
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger.Get(),
	}
}

// ConnectDynamo loads AWS configuration and builds a client. A non-empty
// endpoint points the client at dynamodb-local.
func ConnectDynamo(ctx context.Context, region, endpoint, tableName string) (*DynamoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewDynamoStore(client, tableName), nil
}

func userKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#" + id},
	}
}

// EnsureTable creates the table with on-demand billing if it does not exist
func (s *DynamoStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	s.logger.Info("Created DynamoDB table", zap.String("table", s.tableName))
	return nil
}

func (s *DynamoStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            userKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	if out.Item == nil {
		return domain.User{}, ErrNotFound
	}
	var item dynamoUser
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.User{}, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return item.User, nil
}

func (s *DynamoStore) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	users := make([]domain.User, 0, len(ids))
	seen := make(map[string]bool, len(ids))

	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			if seen[id] {
				continue
			}
			seen[id] = true
			keys = append(keys, userKey(id))
		}
		if len(keys) == 0 {
			continue
		}

		request := map[string]types.KeysAndAttributes{
			s.tableName: {Keys: keys},
		}
		for len(request) > 0 {
			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get users: %w", err)
			}
			for _, raw := range out.Responses[s.tableName] {
				var item dynamoUser
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					return nil, fmt.Errorf("failed to unmarshal user: %w", err)
				}
				users = append(users, item.User)
			}
			request = out.UnprocessedKeys
		}
	}
	return users, nil
}

func (s *DynamoStore) List(ctx context.Context, opts ListOptions) ([]domain.User, int64, error) {
	all, err := s.scan(ctx)
	if err != nil {
		return nil, 0, err
	}
	page, total := pageOf(all, opts)
	return page, total, nil
}

func (s *DynamoStore) All(ctx context.Context) ([]domain.User, error) {
	all, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	sortUsers(all)
	return all, nil
}

func (s *DynamoStore) Count(ctx context.Context) (int64, error) {
	expr, err := s.entityFilter()
	if err != nil {
		return 0, err
	}

	var total int64
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			Select:                    types.SelectCount,
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to count users: %w", err)
		}
		total += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (s *DynamoStore) Insert(ctx context.Context, user domain.User) error {
	return s.put(ctx, user, expression.Name("PK").AttributeNotExists())
}

func (s *DynamoStore) Update(ctx context.Context, user domain.User) error {
	err := s.put(ctx, user, expression.Name("PK").AttributeExists())
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrNotFound
	}
	return err
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeExists()).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       userKey(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// DeleteAll removes every user item one by one
func (s *DynamoStore) DeleteAll(ctx context.Context) (int64, error) {
	all, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, u := range all {
		if err := s.Delete(ctx, u.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}

func (s *DynamoStore) Close(context.Context) error {
	return nil
}

func (s *DynamoStore) put(ctx context.Context, user domain.User, condition expression.ConditionBuilder) error {
	item, err := attributevalue.MarshalMap(dynamoUser{
		PK:         "USER#" + user.ID,
		EntityType: userEntityType,
		User:       withEmptySlices(user),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}

	s.logger.Debug("User item saved", zap.String("user_id", user.ID))
	return nil
}

func (s *DynamoStore) entityFilter() (expression.Expression, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("EntityType").Equal(expression.Value(userEntityType))).
		Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build expression: %w", err)
	}
	return expr, nil
}

func (s *DynamoStore) scan(ctx context.Context) ([]domain.User, error) {
	expr, err := s.entityFilter()
	if err != nil {
		return nil, err
	}

	users := []domain.User{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan users: %w", err)
		}

		var page []dynamoUser
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal users: %w", err)
		}
		for _, item := range page {
			users = append(users, item.User)
		}

		if len(out.LastEvaluatedKey) == 0 {
			return users, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
