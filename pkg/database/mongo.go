package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RecsCollectionName = "recommendations"
	LogsCollectionName = "logs"
)

// -------------------------
// Store
// -------------------------

// Store agrupa el cliente y las colecciones del historial.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect abre la conexión y verifica con Ping.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("conectando a mongo: %w", err)
	}

	// Verificar conexión
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping a mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(database), timeout: timeout}, nil
}

func (s *Store) RecsCollection() *mongo.Collection {
	return s.db.Collection(RecsCollectionName)
}

func (s *Store) LogsCollection() *mongo.Collection {
	return s.db.Collection(LogsCollectionName)
}

// SaveRecommendation guarda una consulta atendida.
func (s *Store) SaveRecommendation(ctx context.Context, doc RecommendationDocument) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.RecsCollection().InsertOne(ctx, doc)
	return err
}

// SaveBuildLog guarda el resumen de una construcción del modelo.
func (s *Store) SaveBuildLog(ctx context.Context, doc LogDocument) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.LogsCollection().InsertOne(ctx, doc)
	return err
}

// RecentRecommendations devuelve las últimas consultas de un título,
// de la más nueva a la más vieja.
func (s *Store) RecentRecommendations(ctx context.Context, title string, limit int64) ([]RecommendationDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := s.RecsCollection().Find(ctx, bson.M{"title": title}, opts)
	if err != nil {
		return nil, err
	}
	var out []RecommendationDocument
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping verifica que el servidor siga respondiendo.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
