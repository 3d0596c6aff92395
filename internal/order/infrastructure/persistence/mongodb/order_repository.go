package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/punjabheritage/storefront/internal/order/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "orders"

type orderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) domain.OrderRepository {
	return &orderRepository{coll: db.Collection(collectionName)}
}

func (r *orderRepository) Insert(ctx context.Context, o *domain.Order) error {
	o.ObjectID = primitive.NewObjectID()
	o.ID = o.ObjectID.Hex()
	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		o.ObjectID = primitive.NilObjectID
		o.ID = ""
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []domain.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	for i := range orders {
		orders[i].ID = orders[i].ObjectID.Hex()
	}
	return orders, nil
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	err := r.coll.FindOne(ctx, bson.M{"orderNumber": number}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	order.ID = order.ObjectID.Hex()
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, tracking string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Surrogate ids never exist in the database.
		return nil, domain.ErrOrderNotFound
	}

	set := bson.M{
		"status":    status,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC()),
	}
	if tracking != "" {
		set["trackingNumber"] = tracking
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.Order
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	updated.ID = updated.ObjectID.Hex()
	return &updated, nil
}
