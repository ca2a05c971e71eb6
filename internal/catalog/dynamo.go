package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/rs/zerolog"
)

// DynamoStore reads courses from a DynamoDB table written by the scraper.
// The table has no useful key for lookups, so every call is a filtered scan.
type DynamoStore struct {
	api    dynamodbiface.DynamoDBAPI
	table  string
	logger *zerolog.Logger
}

func NewDynamoStore(api dynamodbiface.DynamoDBAPI, table string, logger *zerolog.Logger) *DynamoStore {
	return &DynamoStore{api: api, table: table, logger: logger}
}

func (d *DynamoStore) Record(ctx context.Context, code, term string) (*CourseRecord, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(d.table),
		FilterExpression: aws.String("#subject = :subject AND #term = :term"),
		ExpressionAttributeNames: map[string]*string{
			"#subject": aws.String("Subject"),
			"#term":    aws.String("Term"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":subject": {S: aws.String(code)},
			":term":    {S: aws.String(term)},
		},
	}

	var items []map[string]*dynamodb.AttributeValue
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, _ bool) bool {
		items = append(items, page.Items...)
		// stop at the first page that holds a match
		return len(items) == 0
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", ErrUnavailable, d.table, err)
	}

	if len(items) == 0 {
		return nil, ErrCourseNotFound
	}
	if len(items) > 1 {
		d.logger.Warn().Str("course", code).Str("term", term).Int("matches", len(items)).
			Msg("more than one course with this code and term, using the first")
	}

	var rec CourseRecord
	if err := dynamodbattribute.UnmarshalMap(items[0], &rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s-%s: %w", ErrInvalidRecord, code, term, err)
	}
	return &rec, nil
}

func (d *DynamoStore) Terms(ctx context.Context) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(d.table),
		ProjectionExpression:     aws.String("#term"),
		ExpressionAttributeNames: map[string]*string{"#term": aws.String("Term")},
	}

	terms := stringSet{}
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, _ bool) bool {
		for _, item := range page.Items {
			if v, ok := item["Term"]; ok && v.S != nil {
				terms.add(*v.S)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", ErrUnavailable, d.table, err)
	}
	return terms.sorted(), nil
}

func (d *DynamoStore) CourseCodes(ctx context.Context, term string) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		FilterExpression:          aws.String("#term = :term"),
		ExpressionAttributeNames:  map[string]*string{"#term": aws.String("Term")},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{":term": {S: aws.String(term)}},
	}

	codes := stringSet{}
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, _ bool) bool {
		for _, item := range page.Items {
			var rec CourseRecord
			if err := dynamodbattribute.UnmarshalMap(item, &rec); err != nil {
				d.logger.Warn().Err(err).Str("term", term).Msg("skipping undecodable course item")
				continue
			}
			codes.addCourseCodes(&rec)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", ErrUnavailable, d.table, err)
	}
	return codes.sorted(), nil
}
