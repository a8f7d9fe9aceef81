package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EventViewsColName = "event_views"

	EventViewTTL        = 30 * 24 * time.Hour
	EventViewDedupeSpan = time.Hour
)

type EventView struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID     int64              `bson:"event_id" json:"event_id" validate:"required"`
	OrganizerID string             `bson:"organizer_id" json:"organizer_id"`
	UserID      *string            `bson:"user_id,omitempty" json:"user_id,omitempty"`
	SessionID   string             `bson:"session_id" json:"session_id" validate:"required"`
	UserAgent   string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewedAt    time.Time          `bson:"viewed_at" json:"viewed_at"`
	ExpiresAt   time.Time          `bson:"expires_at" json:"expires_at"`
}

type EventViewStats struct {
	EventID       int64 `json:"event_id"`
	TotalViews    int64 `json:"total_views"`
	UniqueViews   int64 `json:"unique_views"`
	ViewsToday    int64 `json:"views_today"`
	ViewsThisWeek int64 `json:"views_this_week"`
}

type EventViewsRepo interface {
	TrackEventView(ctx context.Context, view *EventView) error
	GetEventViewStats(ctx context.Context, eventID int64) (*EventViewStats, error)
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the TTL index and the per-session uniqueness index.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, DBName, EventViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "session_id", Value: 1},
				{Key: "viewed_at", Value: -1},
			},
			Options: options.Index().SetName("event_session_viewed_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "organizer_id", Value: 1}},
			Options: options.Index().SetName("organizer_id_idx"),
		},
	}

	if _, err = col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %v", err)
	}
	return nil
}

// TrackEventView records a detail view. A session viewing the same event
// again within EventViewDedupeSpan is not counted twice.
func (mdb *MongodbRepo) TrackEventView(ctx context.Context, view *EventView) error {
	col, err := mdb.GetCollection(ctx, DBName, EventViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	now := time.Now()
	var recent EventView
	err = col.FindOne(ctx, bson.M{
		"event_id":   view.EventID,
		"session_id": view.SessionID,
		"viewed_at":  bson.M{"$gte": now.Add(-EventViewDedupeSpan)},
	}).Decode(&recent)
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return fmt.Errorf("error checking recent views: %v", err)
	}

	view.ViewedAt = now
	view.ExpiresAt = now.Add(EventViewTTL)
	if view.ID.IsZero() {
		view.ID = primitive.NewObjectID()
	}

	if _, err = col.InsertOne(ctx, view); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("error inserting event view: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetEventViewStats(ctx context.Context, eventID int64) (*EventViewStats, error) {
	col, err := mdb.GetCollection(ctx, DBName, EventViewsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	stats := &EventViewStats{EventID: eventID}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))

	if stats.TotalViews, err = col.CountDocuments(ctx, bson.M{"event_id": eventID}); err != nil {
		return nil, fmt.Errorf("error counting total views: %v", err)
	}

	uniquePipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": eventID}}},
		{{Key: "$group", Value: bson.M{"_id": "$session_id"}}},
		{{Key: "$count", Value: "unique_sessions"}},
	}
	cursor, err := col.Aggregate(ctx, uniquePipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating unique views: %v", err)
	}
	defer cursor.Close(ctx)

	var unique []struct {
		UniqueSessions int64 `bson:"unique_sessions"`
	}
	if err := cursor.All(ctx, &unique); err != nil {
		return nil, fmt.Errorf("error decoding unique views: %v", err)
	}
	if len(unique) > 0 {
		stats.UniqueViews = unique[0].UniqueSessions
	}

	if stats.ViewsToday, err = col.CountDocuments(ctx, bson.M{
		"event_id":  eventID,
		"viewed_at": bson.M{"$gte": startOfDay},
	}); err != nil {
		return nil, fmt.Errorf("error counting today's views: %v", err)
	}

	if stats.ViewsThisWeek, err = col.CountDocuments(ctx, bson.M{
		"event_id":  eventID,
		"viewed_at": bson.M{"$gte": startOfWeek},
	}); err != nil {
		return nil, fmt.Errorf("error counting this week's views: %v", err)
	}

	return stats, nil
}
