package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

const recordTTL = 30 * 24 * time.Hour

// Status represents the lifecycle of a report record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrReportNotFound indicates the requested report ID does not exist.
var ErrReportNotFound = errors.New("report: record not found")

// ErrAlreadyClaimed indicates another worker already claimed the report.
var ErrAlreadyClaimed = errors.New("report: record already claimed")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Record captures the persisted state of one blocked-conversation report.
type Record struct {
	ReportID       string                      `dynamodbav:"reportId" json:"reportId"`
	Status         Status                      `dynamodbav:"status" json:"status"`
	ConversationID string                      `dynamodbav:"conversationId" json:"conversationId"`
	Report         *conversation.BlockedReport `dynamodbav:"report,omitempty" json:"report,omitempty"`
	ArchiveKey     string                      `dynamodbav:"archiveKey,omitempty" json:"archiveKey,omitempty"`
	ErrorMessage   string                      `dynamodbav:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt      string                      `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt      string                      `dynamodbav:"updatedAt" json:"updatedAt"`
	ExpiresAt      int64                       `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// Store persists report records to DynamoDB.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("report: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("report: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Claim inserts a new pending record. The conditional put makes redelivered
// queue messages no-ops: the second claim for the same report ID returns
// ErrAlreadyClaimed.
func (s *Store) Claim(ctx context.Context, reportID string, report *conversation.BlockedReport) error {
	if reportID == "" {
		return errors.New("report: reportID required")
	}
	now := time.Now().UTC()
	record := Record{
		ReportID:       reportID,
		Status:         StatusPending,
		ConversationID: report.ConversationID,
		Report:         report,
		CreatedAt:      now.Format(time.RFC3339Nano),
		UpdatedAt:      now.Format(time.RFC3339Nano),
		ExpiresAt:      now.Add(recordTTL).Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("report: failed to marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(reportId)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) || strings.Contains(err.Error(), "ConditionalCheckFailed") {
			return ErrAlreadyClaimed
		}
		return fmt.Errorf("report: failed to persist record: %w", err)
	}
	return nil
}

// MarkCompleted records the archive location and final state.
func (s *Store) MarkCompleted(ctx context.Context, reportID, archiveKey string) error {
	if reportID == "" {
		return errors.New("report: reportID required")
	}
	return s.update(
		ctx,
		reportID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(StatusCompleted)},
			":archive": &types.AttributeValueMemberS{Value: archiveKey},
			":error":   &types.AttributeValueMemberS{Value: ""},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":  "status",
			"#archive": "archiveKey",
			"#error":   "errorMessage",
			"#updated": "updatedAt",
		},
		"SET #status = :status, #archive = :archive, #error = :error, #updated = :updated",
	)
}

// MarkFailed updates a record to the failed state.
func (s *Store) MarkFailed(ctx context.Context, reportID, errMsg string) error {
	if reportID == "" {
		return errors.New("report: reportID required")
	}
	return s.update(
		ctx,
		reportID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(StatusFailed)},
			":error":   &types.AttributeValueMemberS{Value: errMsg},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":  "status",
			"#error":   "errorMessage",
			"#updated": "updatedAt",
		},
		"SET #status = :status, #error = :error, #updated = :updated",
	)
}

// Get fetches a record by ID.
func (s *Store) Get(ctx context.Context, reportID string) (*Record, error) {
	if reportID == "" {
		return nil, errors.New("report: reportID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"reportId": &types.AttributeValueMemberS{Value: reportID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("report: failed to fetch record: %w", err)
	}
	if out.Item == nil {
		return nil, ErrReportNotFound
	}

	var record Record
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("report: failed to decode record: %w", err)
	}
	return &record, nil
}

func (s *Store) update(ctx context.Context, reportID string, values map[string]types.AttributeValue, names map[string]string, expression string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"reportId": &types.AttributeValueMemberS{Value: reportID},
		},
		UpdateExpression:          aws.String(expression),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(reportId)"),
	})
	if err != nil {
		return fmt.Errorf("report: failed to update record %s: %w", reportID, err)
	}
	return nil
}
