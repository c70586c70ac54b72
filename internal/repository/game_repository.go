package repository

import (
	"context"
	"errors"
	"fmt"

	"escape-server/internal/model"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// ErrRecordNotFound возвращается, когда запись о прогрессе отсутствует.
var ErrRecordNotFound = errors.New("game record not found")

// GameRepository — персистентное хранилище прогресса игроков. Запись
// выполняется best-effort: сервис логирует ошибки, но не прерывает игру.
type GameRepository interface {
	SaveProgress(ctx context.Context, record *model.GameRecord) error
	GetProgress(ctx context.Context, sessionID string) (*model.GameRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*model.GameRecord, error)
	Delete(ctx context.Context, sessionID string) error
}

const gamesCollection = "games"

// firestoreRepository хранит записи в Firestore, по документу на сессию.
type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository создает репозиторий поверх клиента Firestore.
func NewFirestoreRepository(client *firestore.Client) GameRepository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) SaveProgress(ctx context.Context, record *model.GameRecord) error {
	if record == nil || record.SessionID == "" {
		return errors.New("game record must have a session id")
	}
	_, err := r.client.Collection(gamesCollection).Doc(record.SessionID).Set(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to save game record: %w", err)
	}
	return nil
}

func (r *firestoreRepository) GetProgress(ctx context.Context, sessionID string) (*model.GameRecord, error) {
	doc, err := r.client.Collection(gamesCollection).Doc(sessionID).Get(ctx)
	if err != nil {
		if doc != nil && !doc.Exists() {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load game record: %w", err)
	}
	var record model.GameRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, fmt.Errorf("failed to decode game record: %w", err)
	}
	return &record, nil
}

func (r *firestoreRepository) ListByUser(ctx context.Context, userID string) ([]*model.GameRecord, error) {
	iter := r.client.Collection(gamesCollection).Where("user_id", "==", userID).Documents(ctx)
	defer iter.Stop()

	var records []*model.GameRecord
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list game records: %w", err)
		}
		var record model.GameRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, fmt.Errorf("failed to decode game record: %w", err)
		}
		records = append(records, &record)
	}
	return records, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.Collection(gamesCollection).Doc(sessionID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete game record: %w", err)
	}
	return nil
}

// noopRepository используется, когда Firestore не сконфигурирован:
// сервер полностью работоспособен без персистентности.
type noopRepository struct{}

// NewNoopRepository создает репозиторий-заглушку.
func NewNoopRepository() GameRepository {
	return noopRepository{}
}

func (noopRepository) SaveProgress(context.Context, *model.GameRecord) error { return nil }

func (noopRepository) GetProgress(context.Context, string) (*model.GameRecord, error) {
	return nil, ErrRecordNotFound
}

func (noopRepository) ListByUser(context.Context, string) ([]*model.GameRecord, error) {
	return nil, nil
}

func (noopRepository) Delete(context.Context, string) error { return nil }
