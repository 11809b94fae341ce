package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"redsyspay/config"
	"redsyspay/entity"
	"redsyspay/services"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog          = "payment_log"
	collectionReservations = "reservations"
	collectionPayment      = "payment"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
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
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	err := connection.Disconnect(ctx)
	if err != nil {
		log.Println("mongodb disconnect error", err)
	}
}

func (m *MongoDB) GetReservationByOrderId(ctx context.Context, orderId string) (*entity.Reservation, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{"order_number", orderId}}
	collection := connection.Database(m.database).Collection(collectionReservations)
	found := collection.FindOne(ctx, filter)
	if err = found.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	var reservation entity.Reservation
	if err = found.Decode(&reservation); err != nil {
		// a malformed document stays malformed on retry
		return nil, permanent(fmt.Errorf("%w: order %s: %v", ErrUnreadableReservation, orderId, err))
	}
	return &reservation, nil
}

// UpdateReservationStatus sets the payment fields of the reservation with the
// order number. Setting the same values twice leaves the same document.
func (m *MongoDB) UpdateReservationStatus(ctx context.Context, orderId string, status entity.ReservationStatus) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionReservations)
	filter := bson.D{{"order_number", orderId}}
	if status.PaymentStatus != entity.PaymentPaid {
		filter = append(filter, bson.E{Key: "payment_status", Value: bson.D{{"$ne", entity.PaymentPaid}}})
	}
	update := bson.D{
		{"$set", bson.D{
			{"status", status.Status},
			{"payment_status", status.PaymentStatus},
			{"payment_id", status.PaymentId},
			{"payment_auth_code", status.PaymentAuthCode},
			{"updated_at", time.Now()},
		}},
	}
	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		exists, err := collection.CountDocuments(ctx, bson.D{{"order_number", orderId}})
		if err != nil {
			return err
		}
		if exists > 0 {
			return permanent(fmt.Errorf("%w: order %s", ErrAlreadyPaid, orderId))
		}
		return permanent(fmt.Errorf("%w: order %s", ErrReservationNotFound, orderId))
	}
	return nil
}

func (m *MongoDB) WriteLogMessage(ctx context.Context, data services.Data) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(ctx, data)
	return err
}

// SavePaymentResult upserts the audit record keyed by order and response, so
// redelivered notifications do not add documents.
func (m *MongoDB) SavePaymentResult(ctx context.Context, result *entity.PaymentResult) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPayment)
	filter := bson.D{{"params.order", result.Params.Order}, {"params.response", result.Params.Response}}
	set := bson.M{"$set": result}
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	return err
}
