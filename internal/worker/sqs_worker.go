package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/models"
)

// CardProcessingMessage is the queue payload identifying one card to process.
type CardProcessingMessage struct {
	SeriesID int64  `json:"series_id"`
	CardID   int64  `json:"card_id"`
	FrontKey string `json:"front_key"`
	BackKey  string `json:"back_key"`
}

// SQSClient is the subset of the SQS API the worker uses.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// CardProcessor runs the step chain for a single card.
type CardProcessor interface {
	ProcessCard(ctx context.Context, series *models.ProductSeries, card *models.SeriesCard) error
}

// CardLoader resolves the entities a queue message refers to.
type CardLoader interface {
	FindSeriesByID(ctx context.Context, id int64) (*models.ProductSeries, error)
	FindCardByID(ctx context.Context, id int64) (*models.SeriesCard, error)
}

// SQSWorker polls the card processing queue. It is an optional subsystem,
// disabled by default in favor of direct batch triggering. A message whose card
// fails is not deleted, so the queue redelivers it.
type SQSWorker struct {
	client    SQSClient
	loader    CardLoader
	processor CardProcessor
	queueURL  string
	pollDelay time.Duration
	logger    *zap.Logger
}

// NewSQSWorker constructs a worker for the given queue.
func NewSQSWorker(client SQSClient, loader CardLoader, processor CardProcessor,
	queueURL string, pollDelay time.Duration, logger *zap.Logger) *SQSWorker {
	if pollDelay <= 0 {
		pollDelay = 2 * time.Second
	}
	return &SQSWorker{
		client:    client,
		loader:    loader,
		processor: processor,
		queueURL:  queueURL,
		pollDelay: pollDelay,
		logger:    logger.Named("sqs_worker"),
	}
}

// Run polls until the context is cancelled.
func (w *SQSWorker) Run(ctx context.Context) {
	w.logger.Info("queue worker started", zap.String("queue_url", w.queueURL))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("queue worker stopped")
			return
		default:
		}

		if err := w.PollOnce(ctx); err != nil {
			w.logger.Error("queue poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.pollDelay):
		}
	}
}

// PollOnce receives a batch of messages and processes each. Only successfully
// processed messages are deleted.
func (w *SQSWorker) PollOnce(ctx context.Context) error {
	out, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.queueURL),
		MaxNumberOfMessages: 5,
		WaitTimeSeconds:     10,
	})
	if err != nil {
		return err
	}

	for _, message := range out.Messages {
		if err := w.processMessage(ctx, message); err != nil {
			w.logger.Error("message processing failed, leaving for redelivery",
				zap.Error(err))
			continue
		}

		_, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(w.queueURL),
			ReceiptHandle: message.ReceiptHandle,
		})
		if err != nil {
			w.logger.Error("failed to delete processed message", zap.Error(err))
		}
	}
	return nil
}

func (w *SQSWorker) processMessage(ctx context.Context, message types.Message) error {
	var msg CardProcessingMessage
	if err := json.Unmarshal([]byte(aws.ToString(message.Body)), &msg); err != nil {
		return err
	}

	found, err := w.loader.FindSeriesByID(ctx, msg.SeriesID)
	if err != nil {
		return err
	}
	card, err := w.loader.FindCardByID(ctx, msg.CardID)
	if err != nil {
		return err
	}
	if msg.FrontKey != "" {
		card.FrontImgURL = msg.FrontKey
	}
	if msg.BackKey != "" {
		card.BackImgURL = msg.BackKey
	}

	w.logger.Info("processing queued card",
		zap.Int64("series_id", msg.SeriesID), zap.Int64("card_id", msg.CardID))
	return w.processor.ProcessCard(ctx, found, card)
}
