package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/dayregister/backend/internal/models"
)

// referenceIndex is the GSI keyed by ReferenceId.
const referenceIndex = "refIndex"

// DynamoConfig holds DynamoDB client configuration.
type DynamoConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Table           string
	Endpoint        string // optional, for dynamodb-local
}

// Dynamo is the DynamoDB-backed registration store. The table's partition
// key is Email; ExpiryTime is the table's TTL attribute, so expired records
// are evicted by DynamoDB itself.
type Dynamo struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

// NewDynamo creates a DynamoDB store using credentials from config or the
// default AWS credential chain.
func NewDynamo(ctx context.Context, cfg DynamoConfig, logger *zap.Logger) (*Dynamo, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("dynamo table name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("DynamoDB store ready", zap.String("table", cfg.Table), zap.String("region", cfg.Region))
	return &Dynamo{client: client, table: cfg.Table, logger: logger}, nil
}

// GetByEmail returns the record for email, or (nil, nil) if absent.
func (d *Dynamo) GetByEmail(ctx context.Context, email string) (*models.Registration, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       emailKey(email),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get item: %v", ErrUnavailable, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec models.Registration
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// GetByReference queries the reference GSI. At most one live record per
// reference is expected; if the generator ever collides, the first item wins.
func (d *Dynamo) GetByReference(ctx context.Context, reference string) (*models.Registration, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		IndexName:              aws.String(referenceIndex),
		KeyConditionExpression: aws.String("ReferenceId = :r"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": &types.AttributeValueMemberS{Value: reference},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query reference index: %v", ErrUnavailable, err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var rec models.Registration
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// InsertIfAbsent writes rec only if no item with its email exists.
func (d *Dynamo) InsertIfAbsent(ctx context.Context, rec *models.Registration) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(Email)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: put item: %v", ErrUnavailable, err)
	}
	return nil
}

// UpdateIfPresent rewrites the patched attributes only if the item exists.
func (d *Dynamo) UpdateIfPresent(ctx context.Context, email string, patch Patch) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 emailKey(email),
		UpdateExpression:    aws.String("SET RegisterDate = :d, ReferenceId = :r, LogTime = :t, ExpiryTime = :x"),
		ConditionExpression: aws.String("attribute_exists(Email)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberS{Value: patch.RegisterDate},
			":r": &types.AttributeValueMemberS{Value: patch.ReferenceID},
			":t": &types.AttributeValueMemberS{Value: patch.LogTime},
			":x": &types.AttributeValueMemberN{Value: strconv.FormatInt(patch.ExpiryTime, 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: update item: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteIfPresent removes the item only if it exists.
func (d *Dynamo) DeleteIfPresent(ctx context.Context, email string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(d.table),
		Key:                 emailKey(email),
		ConditionExpression: aws.String("attribute_exists(Email)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: delete item: %v", ErrUnavailable, err)
	}
	return nil
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"Email": &types.AttributeValueMemberS{Value: email},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
