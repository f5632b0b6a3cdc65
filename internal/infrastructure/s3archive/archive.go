package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReceiptArchiver stores a JSON receipt for each order that reaches
// delivered. Other events are ignored.
type ReceiptArchiver struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func New(ctx context.Context, region, bucket, prefix string) (*ReceiptArchiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewWithClient(client PutObjectAPI, bucket, prefix string) *ReceiptArchiver {
	return &ReceiptArchiver{client: client, bucket: bucket, prefix: prefix}
}

type receipt struct {
	OrderID         string        `json:"orderId"`
	CustomerName    string        `json:"customerName"`
	RestaurantName  string        `json:"restaurantName"`
	DeliveryAddress string        `json:"deliveryAddress"`
	DriverName      string        `json:"driverName"`
	Items           []domain.Item `json:"items"`
	Subtotal        string        `json:"subtotal"`
	DeliveryFee     string        `json:"deliveryFee"`
	Tax             string        `json:"tax"`
	Total           string        `json:"total"`
	PaymentMethod   string        `json:"paymentMethod"`
	PlacedAt        string        `json:"placedAt"`
	DeliveredAt     string        `json:"deliveredAt"`
}

func (a *ReceiptArchiver) Key(ev events.OrderEvent) string {
	return path.Join(a.prefix, ev.At.UTC().Format("2006/01/02"), ev.OrderID.String()+".json")
}

func (a *ReceiptArchiver) Publish(ctx context.Context, ev events.OrderEvent) error {
	if ev.To != domain.OrderDelivered || ev.Order == nil {
		return nil
	}
	o := ev.Order
	r := receipt{
		OrderID:         o.ID.String(),
		CustomerName:    o.CustomerName,
		RestaurantName:  o.RestaurantName,
		DeliveryAddress: o.DeliveryAddress,
		Items:           o.Items,
		Subtotal:        o.Subtotal.StringFixed(2),
		DeliveryFee:     o.DeliveryFee.StringFixed(2),
		Tax:             o.Tax.StringFixed(2),
		Total:           o.Total.StringFixed(2),
		PaymentMethod:   string(o.PaymentMethod),
		PlacedAt:        o.CreatedAt.UTC().Format(time.RFC3339),
		DeliveredAt:     ev.At.UTC().Format(time.RFC3339),
	}
	if o.DriverName != nil {
		r.DriverName = *o.DriverName
	}

	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(ev)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("unable to upload receipt to S3: %w", err)
	}
	return nil
}
