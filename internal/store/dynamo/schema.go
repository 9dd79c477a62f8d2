package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/store"
)

// EnsureSchema creates missing tables, waits until every table is ACTIVE and
// confirms each key schema matches the declared layout. Tables are handled
// concurrently.
//
// This is idempotent - safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return errors.NewSchema("ensure schema", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.schema.Tables {
		layout := s.tables[t.Name]
		g.Go(func() error {
			if err := s.ensureTable(ctx, layout); err != nil {
				return errors.NewSchema("table "+layout.name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("schema ready", "namespace", s.schema.Namespace, "tables", len(s.schema.Tables))
	return nil
}

func (s *Store) ensureTable(ctx context.Context, l tableLayout) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(l.name),
	})

	var notFound *types.ResourceNotFoundException
	switch {
	case err == nil:
	case errors.As(err, &notFound):
		if err := s.createTable(ctx, l); err != nil {
			return err
		}
	default:
		return fmt.Errorf("describe table: %w", err)
	}

	maxWait := s.config.CreateTimeout
	if maxWait <= 0 {
		maxWait = DefaultConfig().CreateTimeout
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	out, err := waiter.WaitForOutput(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(l.name),
	}, maxWait)
	if err != nil {
		return fmt.Errorf("wait for table: %w", err)
	}

	return verifyKeySchema(l, out.Table)
}

func (s *Store) createTable(ctx context.Context, l tableLayout) error {
	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(l.name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(l.hashAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(l.hashAttr), KeyType: types.KeyTypeHash},
		},
	}
	if l.rangeAttr != "" {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(l.rangeAttr),
			AttributeType: scalarType(l.rangeType),
		})
		input.KeySchema = append(input.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(l.rangeAttr),
			KeyType:       types.KeyTypeRange,
		})
	}

	_, err := s.client.CreateTable(ctx, input)

	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("create table: %w", err)
	}

	log.Info("table created", "table", l.name, "hash", l.hashAttr, "range", l.rangeAttr)
	return nil
}

// verifyKeySchema checks an existing table against the layout.
func verifyKeySchema(l tableLayout, desc *types.TableDescription) error {
	if desc == nil {
		return fmt.Errorf("table %s: empty description", l.name)
	}

	want := map[types.KeyType]string{types.KeyTypeHash: l.hashAttr}
	if l.rangeAttr != "" {
		want[types.KeyTypeRange] = l.rangeAttr
	}

	if len(desc.KeySchema) != len(want) {
		return fmt.Errorf("table %s: key schema has %d elements, want %d", l.name, len(desc.KeySchema), len(want))
	}
	for _, k := range desc.KeySchema {
		if aws.ToString(k.AttributeName) != want[k.KeyType] {
			return fmt.Errorf("table %s: %s key is %q, want %q",
				l.name, k.KeyType, aws.ToString(k.AttributeName), want[k.KeyType])
		}
	}
	return nil
}

func scalarType(t store.ColumnType) types.ScalarAttributeType {
	if t == store.TypeInt {
		return types.ScalarAttributeTypeN
	}
	return types.ScalarAttributeTypeS
}
