package database

import "time"

// -----------------------------------------------------------
// DOCUMENTO: Consulta de recomendación atendida
// Colección: recommendations
// -----------------------------------------------------------

type RecommendedItem struct {
	MovieID int    `bson:"movie_id" json:"movie_id"`
	Title   string `bson:"title" json:"title"`
}

type RecommendationDocument struct {
	RequestID   string            `bson:"request_id" json:"request_id"`
	Title       string            `bson:"title" json:"title"`
	Outcome     string            `bson:"outcome" json:"outcome"`
	Recommended []RecommendedItem `bson:"recommended" json:"recommended"`
	Node        string            `bson:"node,omitempty" json:"node,omitempty"`
	LatencyMS   int64             `bson:"latency_ms" json:"latency_ms"`
	Timestamp   time.Time         `bson:"timestamp" json:"timestamp"`
}

// -----------------------------------------------------------
// DOCUMENTO: Construcción del modelo
// Colección: logs
// -----------------------------------------------------------

type LogDocument struct {
	Host       string    `bson:"host" json:"host"`
	Movies     int       `bson:"movies" json:"movies"`
	Vocabulary int       `bson:"vocabulary" json:"vocabulary"`
	Qualified  int       `bson:"qualified" json:"qualified"`
	Workers    int       `bson:"workers" json:"workers"`
	LatencyMS  int64     `bson:"latency_ms" json:"latency_ms"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}
