package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"propchat/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const (
	// maxConnectAttempts bounds the startup connection probe
	maxConnectAttempts = 5
	initialBackoff     = time.Second

	// candidateWidening multiplies top-K for the nearest-neighbor candidate
	// set when structured filters apply, offsetting post-filter recall loss
	candidateWidening = 3
)

// listingColumns is the canonical document column list shared by search
// and lookup queries
const listingColumns = `listing_id, property_name, property_type, city_name, community_name,
	area_name_en, asking_price, asking_price_currency, number_of_bedrooms, bathrooms_total,
	total_area_sqm, description, for_sale, for_rent, furnished_yn, listing_url,
	list_agent_full_name, combined_text, created_at`

// PostgresRepository is the vector index: pgvector-backed similarity
// search with structured filtering.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects to PostgreSQL, probing with bounded,
// backoff-increasing retries. The probe runs once at construction time
// only, never per request.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	var db *sqlx.DB
	var err error

	backoff := initialBackoff
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}
		if attempt == maxConnectAttempts {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectAttempts, err)
		}
		log.Printf("Database not ready (attempt %d/%d): %v", attempt, maxConnectAttempts, err)
		time.Sleep(backoff)
		backoff *= 2
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// IndexListing stores one canonical document with its embedding. Writes
// are independent per document.
func (r *PostgresRepository) IndexListing(ctx context.Context, doc *model.Listing, embedding []float32) error {
	query := fmt.Sprintf(`
		INSERT INTO listings (%s, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), $19)
	`, listingColumns)

	_, err := r.db.ExecContext(ctx, query,
		doc.ListingID,
		doc.PropertyName,
		doc.PropertyType,
		doc.CityName,
		doc.CommunityName,
		doc.AreaName,
		doc.AskingPrice,
		doc.AskingPriceCurrency,
		doc.Bedrooms,
		doc.Bathrooms,
		doc.TotalAreaSqm,
		doc.Description,
		doc.ForSale,
		doc.ForRent,
		doc.Furnished,
		doc.ListingURL,
		doc.AgentName,
		doc.CombinedText,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to index listing %s: %w", doc.ListingID, err)
	}
	return nil
}

// SearchHybrid performs nearest-neighbor search combined with structured
// filters. With filters present, the candidate set is widened to 3x topK
// before filters apply, then truncated to topK; without filters, it is a
// plain kNN at topK. Results are ordered by similarity descending with
// listing_id as a deterministic tie-break.
func (r *PostgresRepository) SearchHybrid(
	ctx context.Context,
	embedding []float32,
	filters *model.QueryFilters,
	topK int,
) ([]model.SearchResult, error) {
	vec := pgvector.NewVector(embedding)

	if filters.IsEmpty() {
		query := fmt.Sprintf(`
			SELECT %s, 1 - (embedding <=> $1) AS relevance_score
			FROM listings
			ORDER BY embedding <=> $1, listing_id
			LIMIT $2
		`, listingColumns)

		var results []model.SearchResult
		if err := r.db.SelectContext(ctx, &results, query, vec, topK); err != nil {
			return nil, fmt.Errorf("failed to search listings: %w", err)
		}
		return results, nil
	}

	whereClauses, args, argIndex := buildFilterClauses(filters, 3)
	args = append([]interface{}{vec, topK * candidateWidening}, args...)

	query := fmt.Sprintf(`
		WITH candidates AS (
			SELECT %s, embedding <=> $1 AS distance
			FROM listings
			ORDER BY embedding <=> $1
			LIMIT $2
		)
		SELECT %s, 1 - distance AS relevance_score
		FROM candidates
		WHERE %s
		ORDER BY distance, listing_id
		LIMIT $%d
	`, listingColumns, listingColumns, strings.Join(whereClauses, " AND "), argIndex)
	args = append(args, topK)

	var results []model.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return results, nil
}

// buildFilterClauses renders the structured filters as AND-required SQL
// clauses. Equality filters are exact-match; price bounds are inclusive.
func buildFilterClauses(filters *model.QueryFilters, argIndex int) ([]string, []interface{}, int) {
	whereClauses := []string{}
	args := []interface{}{}

	if filters.MinPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("asking_price >= $%d", argIndex))
		args = append(args, *filters.MinPrice)
		argIndex++
	}
	if filters.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("asking_price <= $%d", argIndex))
		args = append(args, *filters.MaxPrice)
		argIndex++
	}
	if filters.Bedrooms != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("number_of_bedrooms = $%d", argIndex))
		args = append(args, *filters.Bedrooms)
		argIndex++
	}
	if filters.ForSale != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("for_sale = $%d", argIndex))
		args = append(args, *filters.ForSale)
		argIndex++
	}
	if filters.ForRent != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("for_rent = $%d", argIndex))
		args = append(args, *filters.ForRent)
		argIndex++
	}
	if filters.PropertyType != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("property_type = $%d", argIndex))
		args = append(args, *filters.PropertyType)
		argIndex++
	}
	if filters.Furnished != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("furnished_yn = $%d", argIndex))
		args = append(args, *filters.Furnished)
		argIndex++
	}
	if filters.CityName != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("city_name = $%d", argIndex))
		args = append(args, *filters.CityName)
		argIndex++
	}

	return whereClauses, args, argIndex
}

// CountListings returns the raw cardinality of the index
func (r *PostgresRepository) CountListings(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM listings"); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return total, nil
}
