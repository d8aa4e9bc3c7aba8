// Package mongostore implements the store contracts on MongoDB. Order
// mutations use FindOneAndUpdate with the expected state in the filter, so
// concurrent writers on one order serialize on the document.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type Store struct {
	orders *mongo.Collection
	users  *mongo.Collection
	audit  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		orders: db.Collection("orders"),
		users:  db.Collection("users"),
		audit:  db.Collection("audit_logs"),
	}
}

var (
	_ store.OrderRepository = (*Store)(nil)
	_ store.UserRepository  = (*Store)(nil)
	_ store.AuditRepository = (*Store)(nil)
)

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		query["paymentStatus"] = filter.PaymentStatus
	}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}

	total, err := s.orders.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if page.Limit > 0 {
		opts.SetSkip(page.Skip()).SetLimit(page.Limit)
	}
	cursor, err := s.orders.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id string, cond store.OrderCondition, upd store.OrderUpdate) (*models.Order, error) {
	filter := bson.M{"_id": id}
	if len(cond.StatusIn) > 0 {
		filter["status"] = bson.M{"$in": cond.StatusIn}
	}
	if len(cond.PaymentStatusIn) > 0 {
		filter["paymentStatus"] = bson.M{"$in": cond.PaymentStatusIn}
	}

	set := bson.M{"updatedAt": upd.At}
	update := bson.M{"$set": set}
	if upd.Status != nil {
		set["status"] = *upd.Status
		update["$push"] = bson.M{"statusHistory": models.StatusChange{Status: *upd.Status, At: upd.At}}
	}
	if upd.PaymentStatus != nil {
		set["paymentStatus"] = *upd.PaymentStatus
	}
	if upd.PaymentMethod != nil {
		set["paymentMethod"] = *upd.PaymentMethod
	}
	if upd.PaymentIntentID != nil {
		set["paymentIntentId"] = *upd.PaymentIntentID
	}
	if upd.PaidAt != nil {
		set["paidAt"] = *upd.PaidAt
	}
	if c := upd.Courier; c != nil {
		set["delivery.courierId"] = c.ID
		set["delivery.courierName"] = c.Name
		set["delivery.courierPhone"] = c.Phone
		if c.EstimatedTime != nil {
			set["delivery.estimatedTime"] = *c.EstimatedTime
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := s.orders.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, countErr
		}
		if count == 0 {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrPreconditionFailed
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	result, err := s.orders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
