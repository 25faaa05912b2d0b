package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"murajaa-backend/internal/models"
)

type DeckRepo struct {
	pool *pgxpool.Pool
}

func NewDeckRepo(pool *pgxpool.Pool) *DeckRepo {
	return &DeckRepo{pool: pool}
}

func (r *DeckRepo) Create(ctx context.Context, d *models.Deck) error {
	d.ID = uuid.New()
	query := `INSERT INTO decks (id, user_id, name) VALUES ($1, $2, $3) RETURNING created_at`
	return r.pool.QueryRow(ctx, query, d.ID, d.UserID, d.Name).Scan(&d.CreatedAt)
}

func (r *DeckRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deck, error) {
	d := &models.Deck{}
	query := `
		SELECT d.id, d.user_id, d.name, d.created_at,
			(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id)
		FROM decks d WHERE d.id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.UserID, &d.Name, &d.CreatedAt, &d.CardCount)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeckRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deck, error) {
	query := `
		SELECT d.id, d.user_id, d.name, d.created_at,
			(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id)
		FROM decks d WHERE d.user_id = $1 ORDER BY d.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		d := &models.Deck{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.CreatedAt, &d.CardCount); err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (r *DeckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM decks WHERE id = $1", id)
	return err
}

// Card operations

func (r *DeckRepo) CreateCard(ctx context.Context, c *models.Card) error {
	c.ID = uuid.New()
	query := `
		INSERT INTO cards (id, deck_id, english, arabic, transliteration, audio_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.DeckID, c.English, c.Arabic, c.Transliteration, c.AudioURL,
	).Scan(&c.CreatedAt)
}

func (r *DeckRepo) GetCardsByDeck(ctx context.Context, deckID uuid.UUID) ([]models.Card, error) {
	query := `
		SELECT id, deck_id, english, arabic, transliteration, audio_url, created_at
		FROM cards WHERE deck_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c := models.Card{}
		if err := rows.Scan(&c.ID, &c.DeckID, &c.English, &c.Arabic, &c.Transliteration, &c.AudioURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
