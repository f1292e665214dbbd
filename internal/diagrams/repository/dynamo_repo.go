package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/drompincen/archviz-go/internal/diagrams/domain"
)

// bootstrapTimeout caps how long construction waits for a freshly
// created table to report ACTIVE.
const bootstrapTimeout = 2 * time.Minute

// DynamoRepository stores one item per diagram in a DynamoDB table
// keyed by id. Consistency is whatever DynamoDB gives per item: no
// conditional writes, so concurrent updates to the same id are
// last-write-wins. Callers own timeout and retry policy via ctx.
type DynamoRepository struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoRepository ensures the backing table exists, creating it
// on demand with pay-per-request billing, and blocks until it is
// ready. A bootstrap error means the repository must not be used.
func NewDynamoRepository(ctx context.Context, client *dynamodb.Client, table string) (*DynamoRepository, error) {
	r := &DynamoRepository{client: client, table: table}
	if err := r.bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("dynamodb bootstrap, table %s: %w", table, err)
	}
	return r, nil
}

func (r *DynamoRepository) bootstrap(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.table),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}

	log.Printf("dynamodb: creating table %s", r.table)
	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(r.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.table),
	}, bootstrapTimeout)
}

func (r *DynamoRepository) Save(ctx context.Context, d domain.Diagram) (domain.Diagram, error) {
	item, err := marshalDiagram(d)
	if err != nil {
		return domain.Diagram{}, err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return domain.Diagram{}, fmt.Errorf("put diagram %s: %w", d.ID, err)
	}
	return d, nil
}

func (r *DynamoRepository) FindByID(ctx context.Context, id string) (*domain.Diagram, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get diagram %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}
	d, err := unmarshalDiagram(out.Item)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindAll is a full-table scan with a server-side filter expression.
// The query predicate targets the lowercased shadow attributes, since
// DynamoDB's contains() is case-sensitive and the unified policy is
// case-insensitive.
func (r *DynamoRepository) FindAll(ctx context.Context, tag, query string) ([]domain.Diagram, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.table)}

	var conds []expression.ConditionBuilder
	if tag != "" {
		conds = append(conds, expression.Contains(expression.Name(attrTags), tag))
	}
	if query != "" {
		q := strings.ToLower(query)
		conds = append(conds, expression.Contains(expression.Name(attrTitleLC), q).
			Or(expression.Contains(expression.Name(attrDescriptionLC), q)))
	}
	if len(conds) > 0 {
		cond := conds[0]
		for _, c := range conds[1:] {
			cond = cond.And(c)
		}
		expr, err := expression.NewBuilder().WithFilter(cond).Build()
		if err != nil {
			return nil, fmt.Errorf("build scan filter: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var out []domain.Diagram
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan diagrams: %w", err)
		}
		for _, item := range page.Items {
			d, err := unmarshalDiagram(item)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *DynamoRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       idKey(id),
	})
	if err != nil {
		return fmt.Errorf("delete diagram %s: %w", id, err)
	}
	return nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}
