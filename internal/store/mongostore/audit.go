package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

func (s *Store) InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	_, err := s.audit.InsertOne(ctx, entry)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, filter store.AuditFilter, page store.Page) ([]models.AuditLogEntry, int64, error) {
	query := auditQuery(filter)

	total, err := s.audit.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if page.Limit > 0 {
		opts.SetSkip(page.Skip()).SetLimit(page.Limit)
	}
	cursor, err := s.audit.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	entries := []models.AuditLogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

type countRow struct {
	N int64 `bson:"n"`
}

type groupRow struct {
	ID string `bson:"_id"`
	N  int64  `bson:"n"`
}

type statsFacet struct {
	Total      []countRow `bson:"total"`
	Failures   []countRow `bson:"failures"`
	ByAction   []groupRow `bson:"byAction"`
	ByResource []groupRow `bson:"byResource"`
	ByRole     []groupRow `bson:"byRole"`
}

func (s *Store) AuditStats(ctx context.Context, filter store.AuditFilter) (store.AuditStats, error) {
	groupBy := func(field string) bson.A {
		return bson.A{bson.M{"$group": bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: auditQuery(filter)}},
		{{Key: "$facet", Value: bson.M{
			"total":      bson.A{bson.M{"$count": "n"}},
			"failures":   bson.A{bson.M{"$match": bson.M{"success": false}}, bson.M{"$count": "n"}},
			"byAction":   groupBy("action"),
			"byResource": groupBy("resource"),
			"byRole":     groupBy("userRole"),
		}}},
	}

	cursor, err := s.audit.Aggregate(ctx, pipeline)
	if err != nil {
		return store.AuditStats{}, err
	}
	defer cursor.Close(ctx)

	var facets []statsFacet
	if err := cursor.All(ctx, &facets); err != nil {
		return store.AuditStats{}, err
	}

	stats := store.AuditStats{
		ByAction:   map[string]int64{},
		ByResource: map[string]int64{},
		ByRole:     map[string]int64{},
	}
	if len(facets) == 0 {
		return stats, nil
	}
	f := facets[0]
	if len(f.Total) > 0 {
		stats.Total = f.Total[0].N
	}
	if len(f.Failures) > 0 {
		stats.Failures = f.Failures[0].N
	}
	for _, row := range f.ByAction {
		stats.ByAction[row.ID] = row.N
	}
	for _, row := range f.ByResource {
		stats.ByResource[row.ID] = row.N
	}
	for _, row := range f.ByRole {
		stats.ByRole[row.ID] = row.N
	}
	return stats, nil
}

func auditQuery(filter store.AuditFilter) bson.M {
	query := bson.M{}
	if filter.Resource != "" {
		query["resource"] = filter.Resource
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.UserRole != "" {
		query["userRole"] = filter.UserRole
	}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		rng := bson.M{}
		if filter.StartDate != nil {
			rng["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			rng["$lte"] = *filter.EndDate
		}
		query["timestamp"] = rng
	}
	return query
}
