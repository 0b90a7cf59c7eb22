package mailbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"stockwatch/internal/domain"
)

// Connect opens a MongoDB client and verifies connectivity with a ping.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Outbox enqueues mail documents for an external delivery worker that
// drains the collection. Inserting the document is the delivery hand-off;
// nothing here sends mail.
type Outbox struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewOutbox(client *mongo.Client, database, collection string, logger *zap.Logger) *Outbox {
	return &Outbox{
		coll:   client.Database(database).Collection(collection),
		logger: logger,
	}
}

type mailDocument struct {
	To         string       `bson:"to"`
	Message    mailContents `bson:"message"`
	EnqueuedAt time.Time    `bson:"enqueued_at"`
}

type mailContents struct {
	Subject string `bson:"subject"`
	Text    string `bson:"text"`
	HTML    string `bson:"html"`
}

func (o *Outbox) Enqueue(ctx context.Context, msg domain.MailMessage) error {
	doc := mailDocument{
		To: msg.To,
		Message: mailContents{
			Subject: msg.Subject,
			Text:    msg.Text,
			HTML:    msg.HTML,
		},
		EnqueuedAt: time.Now().UTC(),
	}

	result, err := o.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	o.logger.Info("mail enqueued",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Any("document_id", result.InsertedID),
	)
	return nil
}

// EnsureIndexes creates the index the delivery worker scans on.
func (o *Outbox) EnsureIndexes(ctx context.Context) error {
	_, err := o.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "enqueued_at", Value: 1}},
	})
	return err
}
