package ingest

import (
	"context"
	"log"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/config"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSConsumer long-polls the sensor queue and feeds message bodies into the
// sensor service. Messages are deleted only after successful processing so a
// failed one comes back after the visibility timeout.
type SQSConsumer struct {
	sqsClient     *sqs.Client
	queueURL      string
	sensorService *service.SensorService
}

func NewSQSConsumer(client *sqs.Client, cfg *config.Config, sensorService *service.SensorService) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:     client,
		queueURL:      cfg.SQSSensorQueueURL,
		sensorService: sensorService,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("SQS consumer listening on queue: %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("SQS consumer: context cancelled, stopping.")
			return
		default:
			receiveInput := &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			}

			result, err := c.sqsClient.ReceiveMessage(ctx, receiveInput)
			if err != nil {
				log.Printf("SQS consumer: receive error: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					log.Println("SQS consumer: context cancelled while waiting to retry.")
					return
				}
				continue
			}

			if len(result.Messages) == 0 {
				continue
			}
			log.Printf("SQS consumer: received %d message(s)", len(result.Messages))

			for _, message := range result.Messages {
				if message.Body == nil {
					log.Println("SQS consumer: empty message body, deleting.")
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}

				if err := c.sensorService.HandleQueueMessage(ctx, *message.Body); err != nil {
					log.Printf("SQS consumer: failed to process message ID %s: %v. Leaving for redelivery.",
						*message.MessageId, err)
					continue
				}
				c.deleteMessage(ctx, message.ReceiptHandle)
			}
		}
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		log.Println("SQS consumer: missing receipt handle, cannot delete message.")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("SQS consumer: delete error: %v", err)
	}
}
