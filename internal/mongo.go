package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paylink/config"
	"paylink/entity"
	"paylink/services"
)

const (
	collectionLog           = "payment_log"
	collectionPaymentOrders = "payment_orders"
	collectionPayment       = "payment"
)

type MongoDB struct {
	client   *mongo.Client
	database string
}

// NewMongoClient connects to MongoDB and ensures the order index exists.
// It returns nil when MongoDB is disabled in the configuration.
func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
	}
	if err = m.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	orders := m.collection(collectionPaymentOrders)
	_, err := orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create order index: %w", err)
	}
	results := m.collection(collectionPayment)
	if _, err = results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order", Value: 1}, {Key: "time_received", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create payment index: %w", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) WriteLogMessage(ctx context.Context, data services.Data) error {
	_, err := m.collection(collectionLog).InsertOne(ctx, data)
	return err
}

// InsertPaymentOrder stores a new order; the unique index on order turns a
// collision into services.ErrDuplicateOrder.
func (m *MongoDB) InsertPaymentOrder(ctx context.Context, order *entity.PaymentOrder) error {
	_, err := m.collection(collectionPaymentOrders).InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", services.ErrDuplicateOrder, order.Order)
	}
	return err
}

func (m *MongoDB) SavePaymentOrder(ctx context.Context, order *entity.PaymentOrder) error {
	filter := bson.D{{Key: "order", Value: order.Order}}
	set := bson.M{"$set": order}
	_, err := m.collection(collectionPaymentOrders).UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	return err
}

// GetPaymentOrder returns nil without error when the order does not exist.
func (m *MongoDB) GetPaymentOrder(ctx context.Context, order string) (*entity.PaymentOrder, error) {
	filter := bson.D{{Key: "order", Value: order}}
	var paymentOrder entity.PaymentOrder
	err := m.collection(collectionPaymentOrders).FindOne(ctx, filter).Decode(&paymentOrder)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paymentOrder, nil
}

func (m *MongoDB) SavePaymentResult(ctx context.Context, result *entity.NotificationResult) error {
	_, err := m.collection(collectionPayment).InsertOne(ctx, result)
	return err
}
