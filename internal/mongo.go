package internal

import (
	"context"
	"fmt"
	"log"

	"checkout/config"
	"checkout/entity"
	"checkout/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog           = "payment_log"
	collectionSessions      = "payment_sessions"
	collectionConfirmations = "payment_confirmations"
)

type MongoDB struct {
	ctx              context.Context
	clientOptions    *options.ClientOptions
	database         string
	logRecordsNumber int64
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
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
	client := &MongoDB{
		ctx:              context.Background(),
		clientOptions:    clientOptions,
		database:         conf.Mongo.Database,
		logRecordsNumber: conf.LogRecords,
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	err := connection.Disconnect(m.ctx)
	if err != nil {
		log.Println("mongodb disconnect error", err)
	}
}

// SaveSnapshot upserts the session snapshot keyed by order id, so a
// repeated accept redirect for the same order overwrites rather than
// duplicates.
func (m *MongoDB) SaveSnapshot(ctx context.Context, snapshot *entity.PaymentSessionSnapshot) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "order_id", Value: snapshot.OrderId}}
	set := bson.M{"$set": snapshot}
	collection := connection.Database(m.database).Collection(collectionSessions)
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	return nil
}

func (m *MongoDB) GetSnapshot(ctx context.Context, orderId string) (*entity.PaymentSessionSnapshot, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionSessions)
	filter := bson.D{{Key: "order_id", Value: orderId}}
	var snapshot entity.PaymentSessionSnapshot
	if err = collection.FindOne(ctx, filter).Decode(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (m *MongoDB) DeleteSnapshot(ctx context.Context, orderId string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionSessions)
	filter := bson.D{{Key: "order_id", Value: orderId}}
	if _, err = collection.DeleteOne(ctx, filter); err != nil {
		return err
	}
	return nil
}

func (m *MongoDB) SaveConfirmation(ctx context.Context, record *entity.ConfirmRecord) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionConfirmations)
	_, err = collection.InsertOne(ctx, record)
	return err
}

func (m *MongoDB) WriteLogMessage(data services.Data) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(m.ctx, data)
	return err
}
