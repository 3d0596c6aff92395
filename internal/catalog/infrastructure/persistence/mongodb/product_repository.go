package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/punjabheritage/storefront/internal/catalog/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "products"

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository builds the primary product store on the given
// database handle.
func NewProductRepository(db *mongo.Database) domain.ProductRepository {
	return &productRepository{coll: db.Collection(collectionName)}
}

func (r *productRepository) FindActiveSorted(ctx context.Context) ([]domain.Product, error) {
	return r.find(ctx, bson.M{"isActive": true})
}

func (r *productRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *productRepository) find(ctx context.Context, filter bson.M) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	var products []domain.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for i := range products {
		// Mirror the ObjectID as the cross-store string id.
		products[i].ID = products[i].ObjectID.Hex()
	}
	return products, nil
}

func (r *productRepository) Insert(ctx context.Context, p *domain.Product) error {
	p.ObjectID = primitive.NewObjectID()
	p.ID = p.ObjectID.Hex()
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		p.ObjectID = primitive.NilObjectID
		p.ID = ""
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) FindByIDAndUpdate(ctx context.Context, id string, u domain.Update) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Surrogate ids never exist in the database.
		return nil, domain.ErrProductNotFound
	}

	set := updateDocument(u)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.Product
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	updated.ID = updated.ObjectID.Hex()
	return &updated, nil
}

func (r *productRepository) FindByIDAndDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrProductNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ExistsByNameOrID(ctx context.Context, name, id string) (bool, error) {
	filters := bson.A{bson.M{"name": name}}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filters = append(filters, bson.M{"_id": oid})
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"$or": filters}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	return n > 0, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// updateDocument translates the partial edit into a $set document, always
// bumping updatedAt.
func updateDocument(u domain.Update) bson.M {
	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC())}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.PunjabiName != nil {
		set["punjabiName"] = *u.PunjabiName
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.PunjabiDescription != nil {
		set["punjabiDescription"] = *u.PunjabiDescription
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.OriginalPrice != nil {
		set["originalPrice"] = *u.OriginalPrice
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Subcategory != nil {
		set["subcategory"] = *u.Subcategory
	}
	if u.Images != nil {
		set["images"] = *u.Images
	}
	if u.Colors != nil {
		set["colors"] = *u.Colors
	}
	if u.Sizes != nil {
		set["sizes"] = *u.Sizes
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Rating != nil {
		set["rating"] = *u.Rating
	}
	if u.Reviews != nil {
		set["reviews"] = *u.Reviews
	}
	if u.Badge != nil {
		set["badge"] = *u.Badge
	}
	if u.BadgeEn != nil {
		set["badgeEn"] = *u.BadgeEn
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}
	return set
}
