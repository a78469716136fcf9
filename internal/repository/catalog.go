package repository

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
)

// CatalogRepository runs semantic product lookups against the pgvector-backed
// products table.
type CatalogRepository struct {
	db *infrastructure.PostgresClient
}

func NewCatalogRepository(db *infrastructure.PostgresClient) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// MatchProducts returns the tenant's products whose cosine similarity to the
// query embedding meets the threshold, best match first.
func (r *CatalogRepository) MatchProducts(ctx context.Context, clientID string, embedding []float32, threshold float64, limit int) ([]entities.Product, error) {
	query := `
		SELECT name, description, price, 1 - (embedding <=> $1) AS similarity
		FROM products
		WHERE client_id = $2
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`

	rows, err := r.db.Pool.Query(ctx, query, pgvector.NewVector(embedding), clientID, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrVectorSearchFailure, err)
	}
	defer rows.Close()

	var products []entities.Product
	for rows.Next() {
		var p entities.Product
		if err := rows.Scan(&p.Name, &p.Description, &p.Price, &p.Similarity); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", entities.ErrVectorSearchFailure, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrVectorSearchFailure, err)
	}

	return products, nil
}
