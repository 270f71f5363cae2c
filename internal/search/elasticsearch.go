package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

const defaultSearchSize = 50

// ElasticClient indexes closed orders and searches them
type ElasticClient struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		index:  cfg.IndexName(),
	}, nil
}

// IndexSale indexes a closed order under its id
func (c *ElasticClient) IndexSale(ctx context.Context, doc *model.SaleDocument) error {
	log.Debug().Str("order_id", doc.OrderID).Msg("indexing sale")

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal sale document")
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.OrderID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError(res, "index")
	}
	return nil
}

// SearchSales finds indexed sales by dish name and business date
func (c *ElasticClient) SearchSales(ctx context.Context, q model.SalesQuery) ([]model.SaleDocument, error) {
	size := q.Limit
	if size <= 0 {
		size = defaultSearchSize
	}

	filters := []map[string]interface{}{}
	if q.Date != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"business_date": q.Date},
		})
	}
	must := []map[string]interface{}{}
	if q.Dish != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"dishes": q.Dish},
		})
	}

	query := map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{{"closed_at": map[string]string{"order": "desc"}}},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
				"must":   must,
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.Wrap(err, "failed to encode search query")
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(res, "search")
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source model.SaleDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}

	sales := make([]model.SaleDocument, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		sales = append(sales, hit.Source)
	}
	return sales, nil
}

// Ping checks the cluster is reachable
func (c *ElasticClient) Ping(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to ping Elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, "ping")
	}
	return nil
}

func responseError(res *esapi.Response, op string) error {
	var e map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		return fmt.Errorf("elasticsearch %s failed: %s", op, res.Status())
	}
	return fmt.Errorf("elasticsearch %s failed: %s: %v", op, res.Status(), e["error"])
}
