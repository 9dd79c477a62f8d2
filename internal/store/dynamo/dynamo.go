// Package dynamo implements store.Backend on Amazon DynamoDB.
//
// Each table of store.Schema becomes a DynamoDB table named
// "<namespace>.<table>". The partition columns form the HASH key; when a table
// is partitioned by more than one column the values are packed into a single
// synthetic "partition" attribute. The clustering column is the RANGE key and
// descending clustering is served by querying with ScanIndexForward=false.
//
// A submission is one TransactWriteItems call, so all rows of a version
// become visible together or not at all.
package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/xtxerr/docservice/internal/logging"
	"github.com/xtxerr/docservice/internal/store"
)

var log = logging.Component("store.dynamo")

// MaxTransactItems is the DynamoDB limit on items in one transaction.
const MaxTransactItems = 100

// partitionAttr holds packed composite partition keys.
const partitionAttr = "partition"

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds DynamoDB store options.
type Config struct {
	// Namespace prefixes every table name.
	Namespace string

	// Region is the AWS region. Empty uses the SDK default chain.
	Region string

	// Endpoint overrides the service endpoint (DynamoDB Local, LocalStack).
	Endpoint string

	// CreateTimeout bounds the wait for a new table to become ACTIVE.
	CreateTimeout time.Duration

	// OperationTimeout bounds each request sequence. Zero means no bound
	// beyond the caller's context.
	OperationTimeout time.Duration

	// PageSize limits items per Query page. Zero lets DynamoDB decide.
	PageSize int32
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:        store.DefaultNamespace,
		CreateTimeout:    2 * time.Minute,
		OperationTimeout: 30 * time.Second,
	}
}

// =============================================================================
// Store
// =============================================================================

// Store is a DynamoDB-backed store.Backend.
//
// Store is safe for concurrent use.
type Store struct {
	client Client
	config Config
	schema store.Schema
	tables map[string]tableLayout

	mu     sync.RWMutex
	closed bool
}

var _ store.Backend = (*Store)(nil)

// New creates a store over an existing client.
func New(client Client, cfg Config) *Store {
	schema := store.DocServiceSchema(cfg.Namespace)

	tables := make(map[string]tableLayout, len(schema.Tables))
	for _, t := range schema.Tables {
		tables[t.Name] = newTableLayout(schema.Namespace, t)
	}

	return &Store{
		client: client,
		config: cfg,
		schema: schema,
		tables: tables,
	}
}

// Open loads AWS configuration from the environment and creates a store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
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

	log.Debug("dynamodb client created", "region", awsCfg.Region, "endpoint", cfg.Endpoint)
	return New(client, cfg), nil
}

// Close marks the store closed. The SDK client holds no connection state
// that needs releasing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Health describes the documents table.
func (s *Store) Health(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tables[store.TableDocuments].name),
	})
	return err
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.OperationTimeout > 0 {
		return context.WithTimeout(ctx, s.config.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

// =============================================================================
// Table Layout
// =============================================================================

// tableLayout maps a TableSpec onto DynamoDB key attributes.
type tableLayout struct {
	spec       store.TableSpec
	name       string
	hashAttr   string
	rangeAttr  string
	rangeType  store.ColumnType
	descending bool
}

func newTableLayout(namespace string, t store.TableSpec) tableLayout {
	l := tableLayout{
		spec:     t,
		name:     namespace + "." + t.Name,
		hashAttr: t.Partition[0],
	}
	if len(t.Partition) > 1 {
		l.hashAttr = partitionAttr
	}
	if len(t.Clustering) > 0 {
		c := t.Clustering[0]
		l.rangeAttr = c.Column
		l.descending = c.Descending
		for _, col := range t.Columns {
			if col.Name == c.Column {
				l.rangeType = col.Type
			}
		}
	}
	return l
}

// partitionValue returns the HASH key value for the given partition column
// values, in declared order.
func (l tableLayout) partitionValue(values ...string) string {
	if len(l.spec.Partition) == 1 {
		return values[0]
	}
	return packPartition(values...)
}

// packPartition length-prefixes each component so that no key content can
// make two different tuples encode to the same string.
func packPartition(values ...string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}
