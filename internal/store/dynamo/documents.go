package dynamo

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/xtxerr/docservice/internal/store"
)

type item = map[string]types.AttributeValue

// =============================================================================
// Write Path
// =============================================================================

// Apply writes the batch as one DynamoDB transaction. Every put is
// conditional on the row not existing yet, matching insert semantics.
func (s *Store) Apply(ctx context.Context, b *store.Batch) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if b.Len() > MaxTransactItems {
		return fmt.Errorf("%d rows: %w", b.Len(), store.ErrBatchTooLarge)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	doc := b.Document()
	items := make([]types.TransactWriteItem, 0, b.Len())
	items = append(items, s.put(store.TableDocuments, s.documentItem(doc)))
	for _, l := range b.Links() {
		items = append(items, s.put(store.TableLinks, s.linkItem(l)))
	}
	for _, r := range b.References() {
		items = append(items, s.put(store.TableReferences, s.referenceItem(r)))
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(doc.VersionID),
	})
	if err != nil {
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func (s *Store) put(table string, it item) types.TransactWriteItem {
	l := s.tables[table]
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:                aws.String(l.name),
			Item:                     it,
			ConditionExpression:      aws.String("attribute_not_exists(#h)"),
			ExpressionAttributeNames: map[string]string{"#h": l.hashAttr},
		},
	}
}

func (s *Store) documentItem(d store.DocumentRow) item {
	return item{
		store.ColKey:       str(d.Key),
		store.ColVersionID: str(d.VersionID),
		store.ColHTML:      str(d.HTML),
	}
}

func (s *Store) linkItem(r store.LinkRow) item {
	l := s.tables[store.TableLinks]
	return item{
		l.hashAttr:         str(l.partitionValue(r.Key, r.VersionID)),
		store.ColKey:       str(r.Key),
		store.ColVersionID: str(r.VersionID),
		store.ColLinkID:    num(r.LinkID),
		store.ColTitle:     str(r.Title),
		store.ColURI:       str(r.URI),
	}
}

func (s *Store) referenceItem(r store.ReferenceRow) item {
	l := s.tables[store.TableReferences]
	return item{
		l.hashAttr:         str(l.partitionValue(r.Key, r.VersionID)),
		store.ColKey:       str(r.Key),
		store.ColVersionID: str(r.VersionID),
		store.ColLinkID:    num(r.LinkID),
		store.ColAnchor:    str(r.Anchor),
		store.ColPosition:  num(r.Position),
	}
}

// =============================================================================
// Read Path
// =============================================================================

// ScanVersion reads the document row for (key, versionID) with a strongly
// consistent GetItem.
func (s *Store) ScanVersion(ctx context.Context, key, versionID string) iter.Seq2[store.DocumentRow, error] {
	return func(yield func(store.DocumentRow, error) bool) {
		if err := s.checkOpen(); err != nil {
			yield(store.DocumentRow{}, err)
			return
		}

		ctx, cancel := s.opContext(ctx)
		defer cancel()

		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tables[store.TableDocuments].name),
			Key: item{
				store.ColKey:       str(key),
				store.ColVersionID: str(versionID),
			},
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			yield(store.DocumentRow{}, fmt.Errorf("get item: %w", err))
			return
		}
		if len(out.Item) == 0 {
			return
		}

		yield(decodeDocument(out.Item))
	}
}

// ScanVersions pages through the key's documents partition, newest first.
func (s *Store) ScanVersions(ctx context.Context, key string) iter.Seq2[store.DocumentRow, error] {
	return query(s, ctx, store.TableDocuments, key, decodeDocument)
}

// ScanLinks pages through the links partition of one version.
func (s *Store) ScanLinks(ctx context.Context, key, versionID string) iter.Seq2[store.LinkRow, error] {
	l := s.tables[store.TableLinks]
	return query(s, ctx, store.TableLinks, l.partitionValue(key, versionID), decodeLink)
}

// ScanReferences pages through the references partition of one version.
func (s *Store) ScanReferences(ctx context.Context, key, versionID string) iter.Seq2[store.ReferenceRow, error] {
	l := s.tables[store.TableReferences]
	return query(s, ctx, store.TableReferences, l.partitionValue(key, versionID), decodeReference)
}

// query walks every page of a single-partition Query in clustering order.
func query[T any](s *Store, ctx context.Context, table, partition string, decode func(item) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		if err := s.checkOpen(); err != nil {
			yield(zero, err)
			return
		}

		ctx, cancel := s.opContext(ctx)
		defer cancel()

		l := s.tables[table]
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(l.name),
			KeyConditionExpression:    aws.String("#h = :h"),
			ExpressionAttributeNames:  map[string]string{"#h": l.hashAttr},
			ExpressionAttributeValues: item{":h": str(partition)},
			ScanIndexForward:          aws.Bool(!l.descending),
			ConsistentRead:            aws.Bool(true),
		}
		if s.config.PageSize > 0 {
			input.Limit = aws.Int32(s.config.PageSize)
		}

		pages := dynamodb.NewQueryPaginator(s.client, input)
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				yield(zero, fmt.Errorf("query %s: %w", l.name, err))
				return
			}
			for _, it := range page.Items {
				row, err := decode(it)
				if err != nil {
					yield(zero, fmt.Errorf("decode %s row: %w", l.name, err))
					return
				}
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

// =============================================================================
// Attribute Encoding
// =============================================================================

func str(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func num(v int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(v)}
}

func getS(it item, name string) (string, error) {
	v, ok := it[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %s: missing or not a string", name)
	}
	return v.Value, nil
}

func getN(it item, name string) (int, error) {
	v, ok := it[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %s: missing or not a number", name)
	}
	n, err := strconv.Atoi(v.Value)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return n, nil
}

func decodeDocument(it item) (store.DocumentRow, error) {
	var d store.DocumentRow
	var err error
	if d.Key, err = getS(it, store.ColKey); err != nil {
		return d, err
	}
	if d.VersionID, err = getS(it, store.ColVersionID); err != nil {
		return d, err
	}
	d.HTML, err = getS(it, store.ColHTML)
	return d, err
}

func decodeLink(it item) (store.LinkRow, error) {
	var l store.LinkRow
	var err error
	if l.Key, err = getS(it, store.ColKey); err != nil {
		return l, err
	}
	if l.VersionID, err = getS(it, store.ColVersionID); err != nil {
		return l, err
	}
	if l.LinkID, err = getN(it, store.ColLinkID); err != nil {
		return l, err
	}
	if l.Title, err = getS(it, store.ColTitle); err != nil {
		return l, err
	}
	l.URI, err = getS(it, store.ColURI)
	return l, err
}

func decodeReference(it item) (store.ReferenceRow, error) {
	var r store.ReferenceRow
	var err error
	if r.Key, err = getS(it, store.ColKey); err != nil {
		return r, err
	}
	if r.VersionID, err = getS(it, store.ColVersionID); err != nil {
		return r, err
	}
	if r.LinkID, err = getN(it, store.ColLinkID); err != nil {
		return r, err
	}
	if r.Anchor, err = getS(it, store.ColAnchor); err != nil {
		return r, err
	}
	r.Position, err = getN(it, store.ColPosition)
	return r, err
}
