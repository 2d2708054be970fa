package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

// PostgresRepository handles database operations for both retrieval paths:
// attribute-filtered queries and pgvector similarity queries.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared
	// statement does not exist" errors behind pgbouncer.
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection. Used by tests.
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const snapshotColumns = `property_id, title, location, property_type, price,
		bedrooms, bathrooms, area_sqft, listed_date, url`

// FilterSearch performs an attribute-filtered query ordered by recency.
// The caller is responsible for rejecting unfiltered constraint sets; this
// method assumes at least one filter is present.
func (r *PostgresRepository) FilterSearch(
	ctx context.Context,
	constraints *model.Constraints,
	limit int,
) ([]model.PropertySnapshot, error) {
	whereClauses := []string{"is_active = true"}
	args := []interface{}{}
	argIndex := 1

	if constraints != nil {
		if constraints.PriceMin != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("price >= $%d", argIndex))
			args = append(args, *constraints.PriceMin)
			argIndex++
		}
		if constraints.PriceMax != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("price <= $%d", argIndex))
			args = append(args, *constraints.PriceMax)
			argIndex++
		}
		if constraints.Bedrooms != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("bedrooms = $%d", argIndex))
			args = append(args, *constraints.Bedrooms)
			argIndex++
		}
		if constraints.Bathrooms != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("bathrooms = $%d", argIndex))
			args = append(args, *constraints.Bathrooms)
			argIndex++
		}
		if constraints.PropertyType != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("property_type ILIKE $%d", argIndex))
			args = append(args, *constraints.PropertyType)
			argIndex++
		}
		if constraints.Location != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("location ILIKE $%d", argIndex))
			args = append(args, "%"+*constraints.Location+"%")
			argIndex++
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE %s
		ORDER BY listed_date DESC NULLS LAST, property_id ASC
		LIMIT $%d
	`, snapshotColumns, strings.Join(whereClauses, " AND "), argIndex)
	args = append(args, limit)

	var properties []model.PropertySnapshot
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}

	return properties, nil
}

// SemanticHit is a property with its raw cosine similarity.
type SemanticHit struct {
	model.PropertySnapshot
	Similarity float64 `db:"similarity"`
}

// VectorSearch performs a pgvector nearest-neighbor query against the
// property embeddings. Similarity is 1 - cosine distance, higher is closer.
func (r *PostgresRepository) VectorSearch(
	ctx context.Context,
	embedding []float32,
	limit int,
) ([]SemanticHit, error) {
	vec := pgvector.NewVector(embedding)
	query := fmt.Sprintf(`
		SELECT %s,
			1 - (embedding <=> $1) AS similarity
		FROM properties
		WHERE is_active = true AND embedding IS NOT NULL
		ORDER BY embedding <=> $1, property_id ASC
		LIMIT $2
	`, snapshotColumns)

	var hits []SemanticHit
	if err := r.db.SelectContext(ctx, &hits, query, vec, limit); err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}

	return hits, nil
}

// GetPropertyByID retrieves a single property by its ID.
func (r *PostgresRepository) GetPropertyByID(ctx context.Context, propertyID int64) (*model.PropertySnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE property_id = $1 AND is_active = true
	`, snapshotColumns)

	var property model.PropertySnapshot
	if err := r.db.GetContext(ctx, &property, query, propertyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

// LogSearch records a completed search for offline tuning of the intent
// rules and ranking weights.
func (r *PostgresRepository) LogSearch(
	ctx context.Context,
	searchID string,
	queryText string,
	intent model.Intent,
	resultCount int,
	partial bool,
	responseTimeMs int64,
) error {
	query := `
		INSERT INTO search_logs (search_id, query, intent, result_count, partial, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, searchID, queryText, string(intent), resultCount, partial, responseTimeMs); err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}
